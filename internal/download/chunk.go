package download

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/drop-oss/dropd/internal/remote"
)

// ChunkContext carries everything one chunk transfer needs: where the bytes
// come from, where they land, and what they must hash to. One instance per
// remote chunk, consumed by one downloadChunk call.
type ChunkContext struct {
	GameID   string
	Version  string
	FileName string
	Index    int

	// Path is the destination file; Offset is where this chunk's bytes
	// start within it.
	Path   string
	Offset int64
	Length int64

	Permissions uint32
	Checksum    string

	// LastInFile gates the permission chmod: it only makes sense once the
	// whole file is on disk.
	LastInFile bool
}

// downloadChunk transfers exactly one chunk. (false, nil) means the control
// flag paused the transfer before it finished; the caller decides whether to
// resume from the same offset later.
func downloadChunk(ctx context.Context, client *remote.Client, cc ChunkContext, flag *ControlFlag, progress ProgressHandle, opts Options) (bool, error) {
	// Pause-before-start fast path: no network request at all
	if flag.Get() == FlagStop {
		progress.Set(0)
		return false, nil
	}

	resp, err := client.FetchChunk(ctx, remote.ChunkRequest{
		GameID:  cc.GameID,
		Version: cc.Version,
		Name:    cc.FileName,
		Index:   cc.Index,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	f, err := os.OpenFile(cc.Path, os.O_WRONLY, 0)
	if err != nil {
		return false, fmt.Errorf("open destination: %w", err)
	}
	defer f.Close()

	if cc.Offset != 0 {
		if _, err := f.Seek(cc.Offset, io.SeekStart); err != nil {
			return false, fmt.Errorf("seek to chunk offset: %w", err)
		}
	}

	dest := newChecksumWriter(f)
	p := &pipeline{
		source:   resp.Body,
		dest:     dest,
		flag:     flag,
		progress: progress,
		size:     resp.Length,
		bufSize:  opts.BufferSize,
		limiter:  opts.Limiter,
	}

	completed, err := p.copy(ctx)
	if err != nil {
		return false, err
	}

	// Flush even on pause: the partial bytes on disk are valid
	sum, err := dest.finish()
	if err != nil {
		return false, fmt.Errorf("flush chunk: %w", err)
	}

	if !completed {
		return false, nil
	}

	if sum != cc.Checksum {
		return false, fmt.Errorf("%w: %s chunk %d (got %s, want %s)",
			ErrChecksumMismatch, cc.FileName, cc.Index, sum, cc.Checksum)
	}

	if cc.LastInFile {
		if err := applyPermissions(cc.Path, cc.Permissions); err != nil {
			return false, fmt.Errorf("set permissions on %s: %w", cc.FileName, err)
		}
	}

	return true, nil
}
