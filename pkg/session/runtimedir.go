package session

import "fmt"

// runtimeDirBase is where logind mounts per-user runtime directories.
const runtimeDirBase = "/run/user"

// RuntimeDirFor derives XDG_RUNTIME_DIR from the resolved user's uid. The
// directory is not created or validated; the value is only exported. An
// unknown or zero uid yields an empty result.
func (p *Pipeline) RuntimeDirFor(u User) string {
	if u.UID <= 0 {
		p.Log.Debugf("uid for %s unknown or zero, leaving XDG_RUNTIME_DIR unset", u.Name)
		return ""
	}
	dir := fmt.Sprintf("%s/%d", runtimeDirBase, u.UID)
	p.Log.Infof("runtime dir for %s: %s", u.Name, dir)
	return dir
}
