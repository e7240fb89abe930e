//go:build !unix

package env

func superuser() bool {
	return false
}
