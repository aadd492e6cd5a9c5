package session

import "testing"

func TestResolveDisplay_RootGetsDefaultWithoutDetection(t *testing.T) {
	host := &fakeHost{
		sockets: []Socket{{Number: "0", OwnerUID: 0}},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(rootInvoker); got != ":0" {
		t.Errorf("ResolveDisplay(root) = %q, want %q", got, ":0")
	}
	if host.sessionCalls != 0 {
		t.Error("no detection must run for the privileged identity")
	}
}

func TestResolveDisplay_SessionManagerWinsOverLaterMethods(t *testing.T) {
	u := User{Name: "alice", UID: 1000}
	host := &fakeHost{
		sessions: []Session{{ID: "3", UID: 1000, User: "alice"}},
		displays: map[string]string{"3": ":1"},
		// A socket match exists too; it must lose to the session manager.
		sockets: []Socket{{Number: "2", OwnerUID: 1000}},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":1" {
		t.Errorf("ResolveDisplay = %q, want session-manager value %q", got, ":1")
	}
}

func TestResolveDisplay_DesktopProcessEnviron(t *testing.T) {
	u := User{Name: "alice", UID: 1000}
	host := &fakeHost{
		sessions: []Session{{ID: "3", UID: 1000, User: "alice"}}, // no Display property
		procs: []Process{
			{PID: 40, Owner: "alice", Command: "/usr/bin/gnome-session --session=gnome"},
			{PID: 41, Owner: "bob", Command: "gnome-shell"},
		},
		environ: map[int32][]string{
			40: {"LANG=C", "DISPLAY=:3", "XDG_SESSION_TYPE=x11"},
		},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":3" {
		t.Errorf("ResolveDisplay = %q, want %q from the desktop process environ", got, ":3")
	}
}

func TestResolveDisplay_DesktopProcessIgnoresOtherOwners(t *testing.T) {
	u := User{Name: "alice", UID: 1000}
	host := &fakeHost{
		procs: []Process{
			{PID: 50, Owner: "bob", Command: "gnome-session"},
		},
		environ: map[int32][]string{
			50: {"DISPLAY=:8"},
		},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":0" {
		t.Errorf("ResolveDisplay = %q, another user's desktop must not leak its display", got)
	}
}

func TestResolveDisplay_SocketOwner(t *testing.T) {
	u := User{Name: "alice", UID: 1000}
	host := &fakeHost{
		sockets: []Socket{
			{Number: "0", OwnerUID: 0},
			{Number: "4", OwnerUID: 1000},
		},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":4" {
		t.Errorf("ResolveDisplay = %q, want %q from socket ownership", got, ":4")
	}
}

func TestResolveDisplay_SocketOwnerNeedsKnownUID(t *testing.T) {
	u := User{Name: "alice", UID: -1}
	host := &fakeHost{
		sockets: []Socket{{Number: "4", OwnerUID: 1000}},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":0" {
		t.Errorf("ResolveDisplay = %q, unknown uid must not match sockets", got)
	}
}

func TestResolveDisplay_LoginRecord(t *testing.T) {
	u := User{Name: "ida", UID: 1010}
	host := &fakeHost{
		records: []string{
			"root     tty1         2026-08-30 09:00",
			"ida      tty2         2026-08-30 10:02 (:5)",
		},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":5" {
		t.Errorf("ResolveDisplay = %q, want %q from the login record", got, ":5")
	}
}

func TestResolveDisplay_DefaultFallback(t *testing.T) {
	u := User{Name: "alice", UID: 1000}
	p := testPipeline(&fakeHost{}, Env{}, rootInvoker)

	if got := p.ResolveDisplay(u); got != ":0" {
		t.Errorf("ResolveDisplay = %q, want the configured default", got)
	}
}

func TestRun_PresetDisplaySkipsResolution(t *testing.T) {
	host := &fakeHost{
		logged:  []string{"alice"},
		uids:    map[string]int{"alice": 1000},
		sockets: []Socket{{Number: "4", OwnerUID: 1000}},
	}
	p := testPipeline(host, Env{Display: ":9"}, rootInvoker)

	res := p.Run()
	if res.Display != "" {
		t.Errorf("Result.Display = %q, must stay empty when DISPLAY is preset", res.Display)
	}
}

func TestRun_WaylandPresenceSkipsResolution(t *testing.T) {
	host := &fakeHost{
		logged:  []string{"alice"},
		uids:    map[string]int{"alice": 1000},
		sockets: []Socket{{Number: "4", OwnerUID: 1000}},
	}
	p := testPipeline(host, Env{WaylandDisplay: "wayland-0"}, rootInvoker)

	res := p.Run()
	if res.Display != "" {
		t.Errorf("Result.Display = %q, must stay empty under a Wayland session", res.Display)
	}
}

func TestRun_ResolvesDisplayWhenUnset(t *testing.T) {
	host := &fakeHost{
		logged:  []string{"alice"},
		uids:    map[string]int{"alice": 1000},
		sockets: []Socket{{Number: "4", OwnerUID: 1000}},
	}
	p := testPipeline(host, Env{}, rootInvoker)

	res := p.Run()
	if res.Display != ":4" {
		t.Errorf("Result.Display = %q, want %q", res.Display, ":4")
	}
	if res.User.Name != "alice" {
		t.Errorf("Result.User = %+v, want alice", res.User)
	}
}

func TestProcessName(t *testing.T) {
	cases := []struct {
		cmdline string
		want    string
	}{
		{"/usr/bin/gnome-session --session=gnome", "gnome-session"},
		{"plasmashell", "plasmashell"},
		{"", ""},
	}
	for _, c := range cases {
		if got := processName(c.cmdline); got != c.want {
			t.Errorf("processName(%q) = %q, want %q", c.cmdline, got, c.want)
		}
	}
}
