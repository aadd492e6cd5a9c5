// Package session resolves which logged-in user owns the active graphical
// session and derives the DISPLAY and XDG_RUNTIME_DIR values a GUI target
// needs. Everything is best-effort: each resolver walks an ordered fallback
// chain and degrades into a default instead of failing.
package session

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/config"
)

// rootName is the privileged account the wrapper typically runs as.
const rootName = "root"

// User is the account resolved to own the active graphical session.
type User struct {
	Name string
	UID  int // -1 when unknown
}

// Session is one login session as reported by logind.
type Session struct {
	ID   string
	UID  uint32
	User string
	// Path is the session's D-Bus object path. Empty when the session came
	// from loginctl output instead of the bus.
	Path string
}

// Process is a point-in-time view of one process table entry.
type Process struct {
	PID       int32
	Owner     string
	Command   string // full command line
	StartedAt int64  // milliseconds since epoch
}

// Socket is one local X11 server socket.
type Socket struct {
	Number   string // numeric display suffix, "0" for /tmp/.X11-unix/X0
	OwnerUID uint32
}

// Host abstracts the read-only system surfaces the resolvers consult.
type Host interface {
	// LoggedInUsers lists the names of currently logged-in users.
	LoggedInUsers() ([]string, error)
	// Sessions lists login sessions.
	Sessions() ([]Session, error)
	// SessionDisplay returns the Display property of a session, if any.
	SessionDisplay(s Session) (string, error)
	// Processes returns a snapshot of the process table.
	Processes() ([]Process, error)
	// ProcessEnviron returns the environment block of a running process.
	ProcessEnviron(pid int32) ([]string, error)
	// DisplaySockets lists local X11 sockets and their filesystem owners.
	DisplaySockets() ([]Socket, error)
	// LoginRecords returns raw who(1) output lines.
	LoginRecords() ([]string, error)
	// LookupUID resolves a user name to its numeric id.
	LookupUID(name string) (int, error)
	// HomeDirs lists the entries under the configured home root.
	HomeDirs() ([]string, error)
}

// Env snapshots the parts of the invoking environment the pipeline reads.
// The pipeline itself never touches the process environment; the caller
// exports the results into the target's environment.
type Env struct {
	Display        string
	WaylandDisplay string
	RuntimeDir     string
	SudoUser       string
}

// EnvFromOS captures the relevant environment of the current process.
func EnvFromOS() Env {
	return Env{
		Display:        os.Getenv("DISPLAY"),
		WaylandDisplay: os.Getenv("WAYLAND_DISPLAY"),
		RuntimeDir:     os.Getenv("XDG_RUNTIME_DIR"),
		SudoUser:       os.Getenv("SUDO_USER"),
	}
}

// Pipeline runs the resolution steps in order: active user, display,
// runtime dir. Each value is resolved at most once per run.
type Pipeline struct {
	Config  config.Config
	Log     *logrus.Logger
	Host    Host
	Env     Env
	Invoker User
}

// Result holds the values the pipeline exports into the target's
// environment. An empty Display or RuntimeDir means the corresponding
// variable must be left untouched.
type Result struct {
	User       User
	Display    string
	RuntimeDir string
}

// Run executes the full pipeline. Display resolution is skipped entirely
// when the invoking environment already carries DISPLAY or WAYLAND_DISPLAY,
// and XDG_RUNTIME_DIR is only derived when unset.
func (p *Pipeline) Run() Result {
	res := Result{User: p.ResolveUser()}

	if p.Env.Display == "" && p.Env.WaylandDisplay == "" {
		res.Display = p.ResolveDisplay(res.User)
	} else {
		p.Log.Debug("display already present in environment, skipping detection")
	}

	if p.Env.RuntimeDir == "" {
		res.RuntimeDir = p.RuntimeDirFor(res.User)
	} else {
		p.Log.Debug("XDG_RUNTIME_DIR already set, leaving it alone")
	}

	return res
}

// lookup attaches a numeric uid to a resolved name.
func (p *Pipeline) lookup(name string) User {
	uid, err := p.Host.LookupUID(name)
	if err != nil {
		p.Log.Debugf("no uid found for %s: %v", name, err)
		uid = -1
	}
	return User{Name: name, UID: uid}
}
