package session

import (
	"path/filepath"
	"strings"
)

// Method tags recorded in the log for each display resolution attempt.
const (
	methodSessionManager = "session-manager"
	methodDesktopProcess = "desktop-process"
	methodSocketOwner    = "socket-owner"
	methodLoginRecord    = "login-record"
	methodDefault        = "default-fallback"
)

// ResolveDisplay determines the DISPLAY value for the resolved user. The
// methods run in fixed order and the first hit wins; when the user is the
// privileged identity no detection is attempted at all. Undetermined
// resolution falls back to the configured default.
func (p *Pipeline) ResolveDisplay(u User) string {
	if u.Name == rootName || u.UID == 0 {
		p.Log.Debugf("resolved user is privileged, skipping display detection (%s)", methodDefault)
		return p.Config.DefaultDisplay
	}

	steps := []struct {
		method string
		fn     func(User) string
	}{
		{methodSessionManager, p.displayFromSessionManager},
		{methodDesktopProcess, p.displayFromDesktopProcess},
		{methodSocketOwner, p.displayFromSocketOwner},
		{methodLoginRecord, p.displayFromLoginRecord},
	}

	for _, s := range steps {
		if d := s.fn(u); d != "" {
			p.Log.Infof("display %s for %s resolved via %s", d, u.Name, s.method)
			return d
		}
		p.Log.Debugf("display method %s: no result for %s", s.method, u.Name)
	}

	p.Log.Infof("display for %s undetermined, using %s (%s)", u.Name, p.Config.DefaultDisplay, methodDefault)
	return p.Config.DefaultDisplay
}

// displayFromSessionManager asks logind for the Display property of a
// session belonging to the user.
func (p *Pipeline) displayFromSessionManager(u User) string {
	sessions, err := p.Host.Sessions()
	if err != nil {
		p.Log.Debugf("%s: %v", methodSessionManager, err)
		return ""
	}
	for _, s := range sessions {
		if s.User != u.Name {
			continue
		}
		d, err := p.Host.SessionDisplay(s)
		if err != nil {
			p.Log.Debugf("%s: session %s: %v", methodSessionManager, s.ID, err)
			continue
		}
		if d != "" {
			return d
		}
	}
	return ""
}

// displayFromDesktopProcess finds a known desktop-shell process owned by the
// user and pulls DISPLAY out of its environment block. The configured
// process list is walked in order.
func (p *Pipeline) displayFromDesktopProcess(u User) string {
	procs, err := p.Host.Processes()
	if err != nil {
		p.Log.Debugf("%s: %v", methodDesktopProcess, err)
		return ""
	}

	for _, want := range p.Config.DesktopProcesses {
		for _, pr := range procs {
			if pr.Owner != u.Name || processName(pr.Command) != want {
				continue
			}
			env, err := p.Host.ProcessEnviron(pr.PID)
			if err != nil {
				p.Log.Debugf("%s: environ of pid %d: %v", methodDesktopProcess, pr.PID, err)
				continue
			}
			for _, kv := range env {
				if d, ok := strings.CutPrefix(kv, "DISPLAY="); ok && d != "" {
					p.Log.Debugf("%s: %s pid=%d has DISPLAY=%s", methodDesktopProcess, want, pr.PID, d)
					return d
				}
			}
		}
	}
	return ""
}

// displayFromSocketOwner matches the user's uid against the owners of the
// local X11 sockets. The socket's numeric suffix becomes :N.
func (p *Pipeline) displayFromSocketOwner(u User) string {
	if u.UID < 0 {
		return ""
	}
	sockets, err := p.Host.DisplaySockets()
	if err != nil {
		p.Log.Debugf("%s: %v", methodSocketOwner, err)
		return ""
	}
	for _, s := range sockets {
		p.Log.Debugf("%s: socket X%s owned by uid %d", methodSocketOwner, s.Number, s.OwnerUID)
		if s.OwnerUID == uint32(u.UID) {
			return ":" + s.Number
		}
	}
	return ""
}

// displayFromLoginRecord scans who(1) lines for the user's entry carrying a
// parenthesized (:N) token.
func (p *Pipeline) displayFromLoginRecord(u User) string {
	records, err := p.Host.LoginRecords()
	if err != nil {
		p.Log.Debugf("%s: %v", methodLoginRecord, err)
		return ""
	}
	for _, line := range records {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != u.Name {
			continue
		}
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "(:") && strings.HasSuffix(f, ")") {
				return f[1 : len(f)-1]
			}
		}
	}
	return ""
}

// processName extracts the executable base name from a command line.
func processName(cmdline string) string {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(fields[0])
}
