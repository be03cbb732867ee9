// Package output writes the shopping list artifacts of a run.
package output

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/dishcalc/internal/logging"
	"github.com/mesh-intelligence/dishcalc/internal/pipeline"
	"github.com/mesh-intelligence/dishcalc/internal/shopping"
)

// Artifact file names inside the output directory.
const (
	ListFile      = "list.md"
	ClusteredFile = "list_clustered.md"
	JSONFile      = "list.json"
	PDFFile       = "list.pdf"
	lockFile      = ".dishcalc.lock"
)

// lockTimeout is how long Write waits for another run to release the
// output directory.
const lockTimeout = 5 * time.Second

// Artifacts holds the paths written by one call to Write. Empty fields were
// not written.
type Artifacts struct {
	List      string `json:"list"`
	Clustered string `json:"clustered,omitempty"`
	JSON      string `json:"json,omitempty"`
}

// Option configures a Writer.
type Option func(*Writer)

// WithClusterer also writes list_clustered.md.
func WithClusterer(c shopping.Clusterer) Option {
	return func(w *Writer) { w.clusterer = c }
}

// WithJSON also writes the full run result as list.json.
func WithJSON(enabled bool) Option {
	return func(w *Writer) { w.json = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// Writer writes artifacts into one directory.
type Writer struct {
	dir       string
	clusterer shopping.Clusterer
	json      bool
	log       logging.Logger
}

// New returns a Writer for dir.
func New(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, log: logging.NoOp()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders res and replaces the artifacts in the output directory.
// Each file is replaced atomically while holding the directory lock. A
// clustering failure is logged and only skips list_clustered.md.
func (w *Writer) Write(ctx context.Context, res *pipeline.Result) (Artifacts, error) {
	if res == nil {
		return Artifacts{}, fmt.Errorf("output: nil result")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("creating output directory: %w", err)
	}

	lock, err := lockDir(ctx, w.dir)
	if err != nil {
		return Artifacts{}, err
	}
	defer lock.Unlock()

	var out Artifacts
	out.List = filepath.Join(w.dir, ListFile)
	if err := writeFileAtomic(out.List, []byte(res.Markdown())); err != nil {
		return Artifacts{}, err
	}
	w.log.Info("list written", "path", out.List, "entries", len(res.Entries))

	if w.clusterer != nil {
		clusters, err := w.clusterer.Cluster(ctx, res.Entries)
		if err != nil {
			w.log.Warn("clustering failed", "error", err)
		} else {
			out.Clustered = filepath.Join(w.dir, ClusteredFile)
			if err := writeFileAtomic(out.Clustered, []byte(shopping.RenderClusters(clusters))); err != nil {
				return Artifacts{}, err
			}
			w.log.Info("clustered list written", "path", out.Clustered, "clusters", len(clusters))
		}
	}

	if w.json {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return Artifacts{}, fmt.Errorf("marshal result: %w", err)
		}
		out.JSON = filepath.Join(w.dir, JSONFile)
		if err := writeFileAtomic(out.JSON, append(data, '\n')); err != nil {
			return Artifacts{}, err
		}
	}
	return out, nil
}

// WriteFile atomically writes one extra artifact named name into the output
// directory while holding the directory lock. It returns the written path.
func (w *Writer) WriteFile(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("output: invalid artifact name %q", name)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	lock, err := lockDir(ctx, w.dir)
	if err != nil {
		return "", err
	}
	defer lock.Unlock()

	path := filepath.Join(w.dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	w.log.Info("artifact written", "path", path, "bytes", len(data))
	return path, nil
}

func lockDir(ctx context.Context, dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, lockFile))
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring output lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for output lock in %s", dir)
	}
	return lock, nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
