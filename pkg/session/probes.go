//go:build linux

package session

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/moby/sys/user"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/config"
)

const (
	logindBusName     = "org.freedesktop.login1"
	logindObjectPath  = "/org/freedesktop/login1"
	logindManagerIntf = "org.freedesktop.login1.Manager"
	logindSessionIntf = "org.freedesktop.login1.Session"
)

// x11SocketDir holds the local X server sockets, one X<N> per display.
const x11SocketDir = "/tmp/.X11-unix"

// systemHost is the production Host. Session data comes from logind over
// D-Bus with a loginctl fallback, process data from gopsutil, socket
// ownership from stat, login records from who(1).
type systemHost struct {
	cfg config.Config
	log *logrus.Logger
}

// NewHost builds the production Host.
func NewHost(cfg config.Config, log *logrus.Logger) Host {
	return &systemHost{cfg: cfg, log: log}
}

// CurrentUser returns the invoking identity of this process.
func CurrentUser() User {
	uid := os.Geteuid()
	if u, err := user.LookupUid(uid); err == nil {
		return User{Name: u.Name, UID: uid}
	}
	if uid == 0 {
		return User{Name: rootName, UID: 0}
	}
	return User{Name: os.Getenv("USER"), UID: uid}
}

func (h *systemHost) LoggedInUsers() ([]string, error) {
	if sessions, err := h.Sessions(); err == nil && len(sessions) > 0 {
		names := make([]string, 0, len(sessions))
		for _, s := range sessions {
			names = append(names, s.User)
		}
		return names, nil
	}

	stats, err := host.Users()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.User)
	}
	return names, nil
}

func (h *systemHost) Sessions() ([]Session, error) {
	if sessions, err := h.sessionsFromBus(); err == nil {
		return sessions, nil
	} else {
		h.log.Debugf("logind bus unavailable, falling back to loginctl: %v", err)
	}
	return h.sessionsFromLoginctl()
}

func (h *systemHost) sessionsFromBus() ([]Session, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(logindBusName, dbus.ObjectPath(logindObjectPath))
	call := obj.Call(logindManagerIntf+".ListSessions", 0)
	if call.Err != nil {
		return nil, call.Err
	}

	var raw []struct {
		ID   string
		UID  uint32
		User string
		Seat string
		Path dbus.ObjectPath
	}
	if err := call.Store(&raw); err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(raw))
	for _, s := range raw {
		sessions = append(sessions, Session{ID: s.ID, UID: s.UID, User: s.User, Path: string(s.Path)})
	}
	return sessions, nil
}

func (h *systemHost) sessionsFromLoginctl() ([]Session, error) {
	out, err := exec.Command("loginctl", "list-sessions", "--no-legend", "--no-pager").Output()
	if err != nil {
		return nil, err
	}

	var sessions []Session
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 3 {
			continue
		}
		uid, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			continue
		}
		sessions = append(sessions, Session{ID: fields[0], UID: uint32(uid), User: fields[2]})
	}
	return sessions, nil
}

func (h *systemHost) SessionDisplay(s Session) (string, error) {
	if s.Path != "" {
		if conn, err := dbus.SystemBus(); err == nil {
			obj := conn.Object(logindBusName, dbus.ObjectPath(s.Path))
			if v, err := obj.GetProperty(logindSessionIntf + ".Display"); err == nil {
				if d, ok := v.Value().(string); ok {
					return d, nil
				}
			}
		}
	}

	out, err := exec.Command("loginctl", "show-session", s.ID, "--property=Display").Output()
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if d, ok := strings.CutPrefix(strings.TrimSpace(line), "Display="); ok {
			return d, nil
		}
	}
	return "", nil
}

func (h *systemHost) Processes() ([]Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		owner, err := p.Username()
		if err != nil {
			continue
		}
		cmdline, _ := p.Cmdline()
		if cmdline == "" {
			cmdline, _ = p.Name()
		}
		started, _ := p.CreateTime()
		out = append(out, Process{PID: p.Pid, Owner: owner, Command: cmdline, StartedAt: started})
	}
	return out, nil
}

func (h *systemHost) ProcessEnviron(pid int32) ([]string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	return p.Environ()
}

func (h *systemHost) DisplaySockets() ([]Socket, error) {
	entries, err := os.ReadDir(x11SocketDir)
	if err != nil {
		return nil, err
	}

	var sockets []Socket
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "X") {
			continue
		}
		num := name[1:]
		if _, err := strconv.Atoi(num); err != nil {
			continue
		}
		owner, err := socketOwner(filepath.Join(x11SocketDir, name))
		if err != nil {
			continue
		}
		sockets = append(sockets, Socket{Number: num, OwnerUID: owner})
	}
	return sockets, nil
}

// socketOwner stats a socket path and returns its owning uid.
func socketOwner(path string) (uint32, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return st.Uid, nil
}

func (h *systemHost) LoginRecords() ([]string, error) {
	out, err := exec.Command("who").Output()
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (h *systemHost) LookupUID(name string) (int, error) {
	u, err := user.LookupUser(name)
	if err != nil {
		return -1, err
	}
	return u.Uid, nil
}

func (h *systemHost) HomeDirs() ([]string, error) {
	entries, err := os.ReadDir(h.cfg.HomeRoot)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
