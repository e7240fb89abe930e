package env

import (
	"os"

	"github.com/qiniu/x/log"
)

// isSuperuser is replaced in tests.
var isSuperuser = superuser

// HomeGuard undoes the HOME removal done by ClearHomeIfRoot.
//
// buck2 refuses to run as root unless $HOME is owned by root or unset,
// which is not the case in most CI containers.
type HomeGuard struct {
	saved   string
	cleared bool
}

// ClearHomeIfRoot removes HOME from the process environment when running
// as the superuser. The returned guard must be restored.
func ClearHomeIfRoot() *HomeGuard {
	g := new(HomeGuard)
	if !isSuperuser() {
		return g
	}
	home, ok := os.LookupEnv("HOME")
	if !ok {
		return g
	}
	log.Info("temporarily unsetting HOME while running as root")
	if err := os.Unsetenv("HOME"); err != nil {
		log.Warn("unsetting HOME:", err)
		return g
	}
	g.saved, g.cleared = home, true
	return g
}

// Restore puts HOME back. It is safe to call more than once.
func (g *HomeGuard) Restore() {
	if !g.cleared {
		return
	}
	os.Setenv("HOME", g.saved)
	g.cleared = false
	log.Info("restored HOME")
}

// WithoutHomeIfRoot runs fn with HOME cleared as ClearHomeIfRoot does and
// restores it on every exit path, panics included.
func WithoutHomeIfRoot(fn func() error) error {
	g := ClearHomeIfRoot()
	defer g.Restore()
	return fn()
}
