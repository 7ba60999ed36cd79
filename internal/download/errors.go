package download

import "errors"

// ErrChecksumMismatch means a chunk's bytes hashed to something other than
// the manifest's expected value. The partial file is left on disk; the job
// is parked in error status.
var ErrChecksumMismatch = errors.New("chunk checksum mismatch")

// ErrInsufficientSpace is returned by the preflight check before any bytes
// are written.
var ErrInsufficientSpace = errors.New("not enough free disk space for install")
