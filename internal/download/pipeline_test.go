package download

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func md5hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

func newTestPipeline(t *testing.T, source io.Reader, size int64, flag *ControlFlag) (*pipeline, *Progress, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	prog := NewProgress()
	prog.Init(1, size)

	p := &pipeline{
		source:   source,
		dest:     newChecksumWriter(f),
		flag:     flag,
		progress: prog.Handle(0),
		size:     size,
		bufSize:  100,
	}
	return p, prog, path
}

func TestPipelineCopiesExactlyDeclaredLength(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 2048)
	src := bytes.NewReader(data)

	p, prog, path := newTestPipeline(t, src, 1024, NewControlFlag(FlagGo))

	completed, err := p.copy(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)

	sum, err := p.dest.finish()
	require.NoError(t, err)
	assert.Equal(t, md5hex(data[:1024]), sum)

	// The source must never be read past the declared length
	assert.Equal(t, 1024, src.Len())

	current, total := prog.Snapshot()
	assert.Equal(t, int64(1024), current)
	assert.Equal(t, int64(1024), total)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data[:1024], written)
}

func TestPipelineStopBeforeFirstRead(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("x"), 1024))

	p, prog, _ := newTestPipeline(t, src, 1024, NewControlFlag(FlagStop))

	completed, err := p.copy(context.Background())
	require.NoError(t, err)
	assert.False(t, completed)

	current, _ := prog.Snapshot()
	assert.Equal(t, int64(0), current)
	assert.Equal(t, 1024, src.Len())
}

func TestPipelineShortResponseIsAnError(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("x"), 100))

	p, _, _ := newTestPipeline(t, src, 200, NewControlFlag(FlagGo))

	completed, err := p.copy(context.Background())
	assert.False(t, completed)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPipelineWithLimiterStillCompletes(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 512)
	src := bytes.NewReader(data)

	p, _, path := newTestPipeline(t, src, 512, NewControlFlag(FlagGo))
	p.limiter = rate.NewLimiter(rate.Inf, 0)

	completed, err := p.copy(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)

	_, err = p.dest.finish()
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestChecksumWriterHashesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sum.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := newChecksumWriter(f)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	sum, err := w.finish()
	require.NoError(t, err)
	assert.Equal(t, md5hex([]byte("hello world")), sum)
}
