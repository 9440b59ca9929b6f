package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/config"
)

// Shared programs; tests run from the package directory.
var (
	isingProgram   = filepath.Join("..", "..", "testdata", "programs", "ising.hpm")
	boundedProgram = filepath.Join("..", "..", "testdata", "programs", "bounded.hpm")
	scenariosDir   = filepath.Join("..", "..", "testdata", "scenarios")
)

var fixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRootOptions returns options whose config discovery only sees empty
// temporary directories.
func testRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format: format,
		Loader: config.NewLoader(discardLogger()).WithDirs(t.TempDir(), t.TempDir()),
	}
}

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
