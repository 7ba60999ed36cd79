//go:build !unix

package download

// No POSIX permission bits on this platform; manifest permissions are
// ignored.
func applyPermissions(path string, mode uint32) error {
	return nil
}
