//go:build unix

package env

import "golang.org/x/sys/unix"

func superuser() bool {
	return unix.Geteuid() == 0
}
