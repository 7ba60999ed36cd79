package download

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/time/rate"
)

// checksumWriter pushes every byte to an md5 hasher on its way to the file,
// through a large buffer so the 128K copy increments don't turn into 128K
// syscalls.
type checksumWriter struct {
	hasher hash.Hash
	buf    *bufio.Writer
}

func newChecksumWriter(f *os.File) *checksumWriter {
	return &checksumWriter{
		hasher: md5.New(),
		buf:    bufio.NewWriterSize(f, 1024*1024),
	}
}

func (w *checksumWriter) Write(p []byte) (int, error) {
	w.hasher.Write(p)
	return w.buf.Write(p)
}

// finish flushes buffered bytes and returns the hex digest of everything
// written through this writer.
func (w *checksumWriter) finish() (string, error) {
	if err := w.buf.Flush(); err != nil {
		return "", err
	}
	return hex.EncodeToString(w.hasher.Sum(nil)), nil
}

// pipeline streams one chunk's bytes from a response body into the
// destination writer. It polls the control flag before every read so a Stop
// lands within one increment, and it never reads past the declared size.
type pipeline struct {
	source   io.Reader
	dest     *checksumWriter
	flag     *ControlFlag
	progress ProgressHandle
	size     int64
	bufSize  int
	limiter  *rate.Limiter
}

// copy runs the transfer. (false, nil) means the flag asked us to stop; the
// bytes written so far are valid and the chunk can restart from its offset
// later. A source that ends before the declared size is a protocol error,
// never silently tolerated.
func (p *pipeline) copy(ctx context.Context) (completed bool, err error) {
	buf := make([]byte, p.bufSize)

	var copied int64
	for copied < p.size {
		if p.flag.Get() == FlagStop {
			return false, nil
		}

		room := int64(len(buf))
		if remaining := p.size - copied; remaining < room {
			room = remaining
		}

		n, rerr := p.source.Read(buf[:room])
		if n > 0 {
			if _, werr := p.dest.Write(buf[:n]); werr != nil {
				return false, fmt.Errorf("write chunk: %w", werr)
			}
			copied += int64(n)
			p.progress.Add(int64(n))

			if p.limiter != nil {
				if lerr := p.limiter.WaitN(ctx, n); lerr != nil {
					return false, lerr
				}
			}
		}

		if rerr != nil {
			if copied >= p.size {
				break
			}
			if errors.Is(rerr, io.EOF) {
				return false, fmt.Errorf("response ended after %d of %d bytes: %w",
					copied, p.size, io.ErrUnexpectedEOF)
			}
			return false, fmt.Errorf("read chunk: %w", rerr)
		}
	}

	return true, nil
}
