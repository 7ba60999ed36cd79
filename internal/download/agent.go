package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/time/rate"

	"github.com/drop-oss/dropd/internal/infra/logger"
	"github.com/drop-oss/dropd/internal/remote"
)

// Options tune every chunk transfer an agent performs.
type Options struct {
	// BufferSize is the copy increment; the control flag is polled between
	// increments, so this bounds pause latency.
	BufferSize int

	// Limiter throttles throughput. nil means unlimited.
	Limiter *rate.Limiter

	// MinFreeSpace is extra headroom required beyond the manifest total
	// during the disk preflight. Negative disables the check.
	MinFreeSpace int64
}

// Agent owns one game download from admission to terminal state: it holds
// the job's control flag and progress object, fetches the manifest once,
// preallocates the destination files, and drives the chunk transfers
// sequentially. It retries nothing; the first error aborts the job.
type Agent struct {
	GameID     string
	Version    string
	InstallDir string

	client *remote.Client
	log    *logger.Logger
	opts   Options

	flag     *ControlFlag
	progress *Progress

	// runMu serializes Run so a stale paused worker can never interleave
	// file writes with a resumed one.
	runMu    sync.Mutex
	prepared bool
	chunks   []ChunkContext
	finished []bool
}

func NewAgent(client *remote.Client, log *logger.Logger, gameID, version, installDir string, opts Options) *Agent {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 128 * 1024
	}
	return &Agent{
		GameID:     gameID,
		Version:    version,
		InstallDir: installDir,
		client:     client,
		log:        log,
		opts:       opts,
		flag:       NewControlFlag(FlagPause),
		progress:   NewProgress(),
	}
}

func (a *Agent) Flag() *ControlFlag { return a.flag }

func (a *Agent) Progress() *Progress { return a.progress }

// Run drives the job to a terminal state or a pause point. It returns
// (true, nil) when every chunk landed, (false, nil) when the control flag
// stopped the transfer, and (false, err) on the first failure. Chunks that
// already finished in an earlier Run are skipped, so pause and resume only
// restarts the interrupted chunk.
func (a *Agent) Run(ctx context.Context) (bool, error) {
	// Paused before we even started: exit without touching the network
	if a.flag.Get() == FlagStop {
		return false, nil
	}

	a.runMu.Lock()
	defer a.runMu.Unlock()

	if !a.prepared {
		if err := a.prepare(ctx); err != nil {
			return false, err
		}
	}

	for i, cc := range a.chunks {
		if a.finished[i] {
			continue
		}

		handle := a.progress.Handle(i)
		handle.Set(0)

		completed, err := downloadChunk(ctx, a.client, cc, a.flag, handle, a.opts)
		if err != nil {
			return false, err
		}
		if !completed {
			return false, nil
		}
		a.finished[i] = true
	}

	return true, nil
}

// prepare fetches the manifest and turns it into chunk contexts, checking
// disk space and reserving the destination files before any transfer runs.
func (a *Agent) prepare(ctx context.Context) error {
	manifest, err := a.client.FetchManifest(ctx, a.GameID, a.Version)
	if err != nil {
		return err
	}

	dir := filepath.Join(a.InstallDir, a.GameID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}

	total := manifest.TotalLength()
	if a.opts.MinFreeSpace >= 0 {
		if err := checkFreeSpace(dir, total+a.opts.MinFreeSpace); err != nil {
			return err
		}
	}

	for _, file := range manifest.Files {
		path := filepath.Join(dir, filepath.FromSlash(file.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create file directory: %w", err)
		}
		if err := preallocate(path, file.Length()); err != nil {
			return err
		}

		for i, chunk := range file.Chunks {
			a.chunks = append(a.chunks, ChunkContext{
				GameID:      a.GameID,
				Version:     a.Version,
				FileName:    file.Name,
				Index:       chunk.Index,
				Path:        path,
				Offset:      chunk.Offset,
				Length:      chunk.Length,
				Permissions: file.Permissions,
				Checksum:    chunk.Checksum,
				LastInFile:  i == len(file.Chunks)-1,
			})
		}
	}

	a.finished = make([]bool, len(a.chunks))
	a.progress.Init(len(a.chunks), total)
	a.prepared = true

	a.log.Info("Prepared download for %s@%s: %d files, %d chunks, %d MB",
		a.GameID, a.Version, len(manifest.Files), len(a.chunks), total/1024/1024)

	return nil
}

// preallocate reserves the final file size up front. On Unix filesystems
// Truncate creates a sparse file, so this only writes metadata.
func preallocate(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("could not open destination file: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("could not preallocate %s: %w", path, err)
	}
	return nil
}

func checkFreeSpace(dir string, required int64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		// The preflight is advisory; an unreadable mount shouldn't block
		// the download
		return nil
	}
	if usage.Free < uint64(required) {
		return fmt.Errorf("%w: need %d bytes, %d free at %s",
			ErrInsufficientSpace, required, usage.Free, dir)
	}
	return nil
}
