package session

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/config"
)

// fakeHost feeds the resolvers canned system state and records which
// surfaces were consulted.
type fakeHost struct {
	logged     []string
	loggedErr  error
	sessions   []Session
	sessionErr error
	displays   map[string]string // session ID -> Display property
	procs      []Process
	procsErr   error
	environ    map[int32][]string
	sockets    []Socket
	socketsErr error
	records    []string
	uids       map[string]int
	homes      []string

	processCalls int
	sessionCalls int
}

func (f *fakeHost) LoggedInUsers() ([]string, error) {
	return f.logged, f.loggedErr
}

func (f *fakeHost) Sessions() ([]Session, error) {
	f.sessionCalls++
	return f.sessions, f.sessionErr
}

func (f *fakeHost) SessionDisplay(s Session) (string, error) {
	return f.displays[s.ID], nil
}

func (f *fakeHost) Processes() ([]Process, error) {
	f.processCalls++
	return f.procs, f.procsErr
}

func (f *fakeHost) ProcessEnviron(pid int32) ([]string, error) {
	env, ok := f.environ[pid]
	if !ok {
		return nil, errors.New("no such process")
	}
	return env, nil
}

func (f *fakeHost) DisplaySockets() ([]Socket, error) {
	return f.sockets, f.socketsErr
}

func (f *fakeHost) LoginRecords() ([]string, error) {
	return f.records, nil
}

func (f *fakeHost) LookupUID(name string) (int, error) {
	uid, ok := f.uids[name]
	if !ok {
		return -1, errors.New("user not found")
	}
	return uid, nil
}

func (f *fakeHost) HomeDirs() ([]string, error) {
	return f.homes, nil
}

// testPipeline wires a pipeline around a fake host with a silent logger.
func testPipeline(h Host, env Env, invoker User) *Pipeline {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return &Pipeline{
		Config: config.Config{
			HomeRoot:         "/home",
			DefaultDisplay:   ":0",
			DesktopProcesses: []string{"gnome-session", "gnome-shell", "plasmashell"},
		},
		Log:     log,
		Host:    h,
		Env:     env,
		Invoker: invoker,
	}
}

var rootInvoker = User{Name: "root", UID: 0}

var errTest = errors.New("probe failure")
