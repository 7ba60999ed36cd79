//go:build unix

package download

import "os"

func applyPermissions(path string, mode uint32) error {
	return os.Chmod(path, os.FileMode(mode)&os.ModePerm)
}
