package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
)

// Writer writes each graph snapshot to its own file in a directory.
// It implements pipeline.Loader.
type Writer struct {
	dir    string
	pretty bool
	logger *slog.Logger
}

// NewWriter creates a Writer targeting dir. The directory is created on
// first use.
func NewWriter(dir string, pretty bool, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, pretty: pretty, logger: logger}
}

// FileName renders a graph timestamp as a portable file name:
// "2020-04-01T00:00:00Z" becomes "2020-04-01T00-00-00Z.json". All timestamps
// share one layout, so distinct dates never share a name.
func FileName(timestamp string) string {
	return strings.ReplaceAll(timestamp, ":", "-") + ".json"
}

// Path returns the file a graph is written to.
func (w *Writer) Path(g domain.Graph) string {
	return filepath.Join(w.dir, FileName(g.Timestamp))
}

// Load serializes g and writes it via a temp file and rename, so a failed
// write never leaves a partial snapshot behind.
func (w *Writer) Load(ctx context.Context, g domain.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := domain.MarshalGraph(g, w.pretty)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := w.Path(g)
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	w.logger.Debug("snapshot written", "path", path, "nodes", len(g.Nodes), "bytes", len(data))
	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
