package download

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drop-oss/dropd/internal/infra/logger"
	"github.com/drop-oss/dropd/internal/remote"
)

var (
	chunk0 = []byte("AAAAAAAA")
	chunk1 = []byte("BBBBBBBB")
)

// dropServer fakes the two Drop endpoints an agent talks to and counts
// requests per chunk.
type dropServer struct {
	t *testing.T

	mu       sync.Mutex
	manifest remote.Manifest
	requests map[string]int

	// onChunk runs before a chunk response is written; tests use it to flip
	// the control flag mid-job.
	onChunk func(index int)
}

func newDropServer(t *testing.T) (*dropServer, *httptest.Server) {
	t.Helper()

	ds := &dropServer{
		t:        t,
		requests: make(map[string]int),
		manifest: remote.Manifest{
			GameID:  "g1",
			Version: "1.0",
			Files: []remote.ManifestFile{{
				Name:        "data.bin",
				Permissions: 0o755,
				Chunks: []remote.ManifestChunk{
					{Index: 0, Offset: 0, Length: 8, Checksum: md5hex(chunk0)},
					{Index: 1, Offset: 8, Length: 8, Checksum: md5hex(chunk1)},
				},
			}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/client/game/manifest", func(w http.ResponseWriter, r *http.Request) {
		ds.record("manifest", r)
		_ = json.NewEncoder(w).Encode(ds.manifest)
	})
	mux.HandleFunc("/api/v1/client/chunk", func(w http.ResponseWriter, r *http.Request) {
		index := r.URL.Query().Get("chunk")
		ds.record("chunk"+index, r)
		if ds.onChunk != nil {
			if index == "0" {
				ds.onChunk(0)
			} else {
				ds.onChunk(1)
			}
		}
		if index == "0" {
			_, _ = w.Write(chunk0)
		} else {
			_, _ = w.Write(chunk1)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return ds, srv
}

func (ds *dropServer) record(key string, r *http.Request) {
	assert.Equal(ds.t, "Bearer test-key", r.Header.Get("Authorization"))
	ds.mu.Lock()
	ds.requests[key]++
	ds.mu.Unlock()
}

func (ds *dropServer) count(key string) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.requests[key]
}

func newTestAgent(t *testing.T, serverURL string) *Agent {
	t.Helper()

	base, err := url.Parse(serverURL)
	require.NoError(t, err)

	log, err := logger.New(filepath.Join(t.TempDir(), "test.log"), logger.LevelError, false)
	require.NoError(t, err)

	client := remote.NewClient(base, remote.BearerAuth("test-key"), nil)
	return NewAgent(client, log, "g1", "1.0", t.TempDir(), Options{
		BufferSize:   4,
		MinFreeSpace: -1,
	})
}

func TestAgentDownloadsWholeGame(t *testing.T) {
	ds, srv := newDropServer(t)
	a := newTestAgent(t, srv.URL)

	a.Flag().Set(FlagGo)
	completed, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)

	path := filepath.Join(a.InstallDir, "g1", "data.bin")
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, chunk0...), chunk1...), written)

	current, total := a.Progress().Snapshot()
	assert.Equal(t, int64(16), current)
	assert.Equal(t, int64(16), total)

	assert.Equal(t, 1, ds.count("manifest"))
	assert.Equal(t, 1, ds.count("chunk0"))
	assert.Equal(t, 1, ds.count("chunk1"))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

func TestAgentStoppedBeforeStartMakesNoRequests(t *testing.T) {
	ds, srv := newDropServer(t)
	a := newTestAgent(t, srv.URL)

	a.Flag().Set(FlagStop)
	completed, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, completed)

	assert.Equal(t, 0, ds.count("manifest"))
	assert.Equal(t, 0, ds.count("chunk0"))
}

func TestAgentEnforcesChecksum(t *testing.T) {
	ds, srv := newDropServer(t)
	ds.manifest.Files[0].Chunks[0].Checksum = md5hex([]byte("something else"))
	a := newTestAgent(t, srv.URL)

	a.Flag().Set(FlagGo)
	completed, err := a.Run(context.Background())
	assert.False(t, completed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestAgentResumeSkipsFinishedChunks(t *testing.T) {
	ds, srv := newDropServer(t)
	a := newTestAgent(t, srv.URL)

	// Pause the job the moment the second chunk is requested: chunk 0
	// finishes, chunk 1 does not.
	ds.onChunk = func(index int) {
		if index == 1 {
			a.Flag().Set(FlagStop)
		}
	}

	a.Flag().Set(FlagGo)
	completed, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, completed)

	// Resume: only the interrupted chunk is refetched
	ds.onChunk = nil
	a.Flag().Set(FlagGo)
	completed, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)

	assert.Equal(t, 1, ds.count("manifest"))
	assert.Equal(t, 1, ds.count("chunk0"))
	assert.Equal(t, 2, ds.count("chunk1"))

	written, err := os.ReadFile(filepath.Join(a.InstallDir, "g1", "data.bin"))
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, chunk0...), chunk1...), written)

	current, total := a.Progress().Snapshot()
	assert.Equal(t, total, current)
}
