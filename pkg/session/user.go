package session

import (
	"sort"
	"strings"
)

// installerMarkers are command line substrings that suggest a process is
// running a driver installer or handling a package file. Matched
// case-insensitively against the full command line.
var installerMarkers = []string{
	"install",
	"setup",
	".deb",
	".rpm",
	".run",
	"dpkg",
}

// ResolveUser determines which user owns the active graphical session.
//
// A non-privileged invoker is its own answer. Under root the logged-in
// listing is consulted first; a single non-root user short-circuits the
// whole chain. Otherwise detection walks the process table (installer
// processes, then the newest process) and finally the session list, with
// the invoking identity as the last resort.
func (p *Pipeline) ResolveUser() User {
	if p.Invoker.UID != 0 {
		p.Log.Debugf("invoker %s is not privileged, no detection needed", p.Invoker.Name)
		return p.Invoker
	}

	logged := p.loggedInCandidates()
	p.Log.Debugf("logged-in non-root candidates: %v", logged)

	if len(logged) == 1 {
		p.Log.Infof("single logged-in user %s, selecting directly", logged[0])
		return p.lookup(logged[0])
	}

	if name := p.installerProcessOwner(); name != "" {
		p.Log.Infof("active user %s resolved from installer process", name)
		return p.lookup(name)
	}
	if name := p.newestProcessOwner(); name != "" {
		p.Log.Infof("active user %s resolved from newest process", name)
		return p.lookup(name)
	}
	if name := p.firstSessionUser(); name != "" {
		p.Log.Infof("active user %s resolved from session list", name)
		return p.lookup(name)
	}

	if len(logged) > 0 {
		p.Log.Infof("detection exhausted, falling back to first logged-in user %s", logged[0])
		return p.lookup(logged[0])
	}

	p.Log.Infof("no non-root user found, keeping invoking identity %s", p.Invoker.Name)
	return p.Invoker
}

// loggedInCandidates returns the deduplicated non-root logged-in names.
// SUDO_USER, when present, is the strongest candidate and goes first.
func (p *Pipeline) loggedInCandidates() []string {
	var names []string
	if p.Env.SudoUser != "" && p.Env.SudoUser != rootName {
		names = append(names, p.Env.SudoUser)
	}

	listed, err := p.Host.LoggedInUsers()
	if err != nil {
		p.Log.Debugf("listing logged-in users: %v", err)
	}
	names = append(names, listed...)

	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		if n == "" || n == rootName || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// installerProcessOwner scans the process table for non-root owners whose
// command line references an install artifact.
func (p *Pipeline) installerProcessOwner() string {
	procs, err := p.Host.Processes()
	if err != nil {
		p.Log.Debugf("process scan: %v", err)
		return ""
	}

	var owners []string
	for _, pr := range procs {
		if pr.Owner == "" || pr.Owner == rootName {
			continue
		}
		cmd := strings.ToLower(pr.Command)
		for _, marker := range installerMarkers {
			if strings.Contains(cmd, marker) {
				p.Log.Debugf("installer candidate pid=%d owner=%s cmd=%q", pr.PID, pr.Owner, pr.Command)
				owners = append(owners, pr.Owner)
				break
			}
		}
	}
	return p.preferHomeOwner(owners)
}

// newestProcessOwner picks the owner of the most recently started non-root
// process, with the same home-directory preference as the installer scan.
func (p *Pipeline) newestProcessOwner() string {
	procs, err := p.Host.Processes()
	if err != nil {
		p.Log.Debugf("process scan: %v", err)
		return ""
	}

	sorted := make([]Process, len(procs))
	copy(sorted, procs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt > sorted[j].StartedAt
	})

	var owners []string
	for _, pr := range sorted {
		if pr.Owner == "" || pr.Owner == rootName {
			continue
		}
		p.Log.Debugf("recent-process candidate pid=%d owner=%s started=%d", pr.PID, pr.Owner, pr.StartedAt)
		owners = append(owners, pr.Owner)
	}
	return p.preferHomeOwner(owners)
}

// preferHomeOwner returns the first owner with a directory under the home
// root, falling back to the first owner overall.
func (p *Pipeline) preferHomeOwner(owners []string) string {
	if len(owners) == 0 {
		return ""
	}

	homes, err := p.Host.HomeDirs()
	if err != nil {
		p.Log.Debugf("listing %s: %v", p.Config.HomeRoot, err)
	}
	known := make(map[string]bool, len(homes))
	for _, h := range homes {
		known[h] = true
	}

	for _, o := range owners {
		if known[o] {
			return o
		}
	}
	return owners[0]
}

// firstSessionUser returns the first non-root name in the session list.
func (p *Pipeline) firstSessionUser() string {
	sessions, err := p.Host.Sessions()
	if err != nil {
		p.Log.Debugf("listing sessions: %v", err)
		return ""
	}
	for _, s := range sessions {
		if s.User != "" && s.User != rootName {
			return s.User
		}
	}
	return ""
}
