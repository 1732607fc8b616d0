// Package importer reads host files and directories into tree nodes.
//
// Directory walks use fastwalk and honor both caller-supplied doublestar
// patterns and a .gitignore at the walk root. File bodies are read
// concurrently through a bounded conc pool; node ids are assigned afterwards
// in path order so repeated imports of the same directory produce the same
// shape.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// GitignoreName is the ignore file honored at the root of a directory walk.
const GitignoreName = ".gitignore"

var (
	ErrNotDirectory = errors.New("not a directory")
	ErrFileTooLarge = errors.New("file exceeds import size limit")
)

// Options configures an Importer.
type Options struct {
	MaxFileBytes int64
	Workers      int
	Logger       *zap.Logger
}

// DefaultOptions returns production settings.
func DefaultOptions() Options {
	return Options{
		MaxFileBytes: 32 << 20,
		Workers:      runtime.NumCPU(),
	}
}

// Importer converts host files into nodes.
type Importer struct {
	ids    tree.IDSource
	opts   Options
	logger *zap.Logger
}

// New creates an importer drawing ids from ids.
func New(ids tree.IDSource, opts Options) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{ids: ids, opts: opts, logger: logger}
}

// Files reads each path into a file node named after its base name.
// Results keep the order of paths.
func (im *Importer) Files(ctx context.Context, paths []string) ([]*tree.File, error) {
	bodies, err := im.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	files := make([]*tree.File, len(paths))
	for i, p := range paths {
		files[i] = tree.NewFile(im.nextID(), filepath.Base(p), tree.EncodePayload(bodies[i]))
	}
	return files, nil
}

// Dir walks root into a folder named after it. Paths matching any of the
// ignore patterns, or the root .gitignore, are skipped along with their
// subtrees. Oversized files are skipped and logged.
func (im *Importer) Dir(ctx context.Context, root string, patterns []string) (*tree.Folder, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	matcher, err := newMatcher(root, patterns)
	if err != nil {
		return nil, err
	}

	dirs, files, err := im.walk(ctx, root, matcher)
	if err != nil {
		return nil, err
	}

	abs := make([]string, len(files))
	for i, rel := range files {
		abs[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	bodies, err := im.readAll(ctx, abs)
	if err != nil {
		return nil, err
	}

	folder := im.build(filepath.Base(filepath.Clean(root)), dirs, files, bodies)
	im.logger.Info("Imported directory",
		zap.String("root", root),
		zap.Int("folders", len(dirs)),
		zap.Int("files", len(files)))
	return folder, nil
}

// ============================================================================
// Walking
// ============================================================================

type matcher struct {
	patterns  []string
	gitignore *ignore.GitIgnore
}

func newMatcher(root string, patterns []string) (*matcher, error) {
	m := &matcher{patterns: patterns}

	gi := filepath.Join(root, GitignoreName)
	if _, err := os.Stat(gi); err == nil {
		compiled, err := ignore.CompileIgnoreFile(gi)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", gi, err)
		}
		m.gitignore = compiled
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return m, nil
}

// ignored reports whether rel (slash-separated) should be skipped. Patterns
// without a slash match the base name at any depth.
func (m *matcher) ignored(rel string, dir bool) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	if m.gitignore != nil {
		if dir && m.gitignore.MatchesPath(rel+"/") {
			return true
		}
		return m.gitignore.MatchesPath(rel)
	}
	return false
}

// walk returns the sorted relative directory and file paths under root.
func (im *Importer) walk(ctx context.Context, root string, m *matcher) (dirs, files []string, err error) {
	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			im.logger.Warn("Skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if p == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if m.ignored(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			mu.Lock()
			dirs = append(dirs, rel)
			mu.Unlock()
		case d.Type().IsRegular():
			if info, err := d.Info(); err == nil && im.opts.MaxFileBytes > 0 && info.Size() > im.opts.MaxFileBytes {
				im.logger.Warn("Skipping oversized file", zap.String("path", rel), zap.Int64("bytes", info.Size()))
				return nil
			}
			mu.Lock()
			files = append(files, rel)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// readAll reads every path concurrently, keeping result order.
func (im *Importer) readAll(ctx context.Context, paths []string) ([][]byte, error) {
	bodies := make([][]byte, len(paths))
	p := pool.New().WithMaxGoroutines(im.opts.Workers).WithContext(ctx).WithCancelOnError()

	for i, name := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, err := im.readFile(name)
			if err != nil {
				return err
			}
			bodies[i] = body
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return bodies, nil
}

func (im *Importer) readFile(name string) ([]byte, error) {
	if im.opts.MaxFileBytes > 0 {
		info, err := os.Stat(name)
		if err != nil {
			return nil, err
		}
		if info.Size() > im.opts.MaxFileBytes {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
		}
	}
	return os.ReadFile(name)
}

// build assembles sorted paths into a folder subtree.
func (im *Importer) build(name string, dirs, files []string, bodies [][]byte) *tree.Folder {
	root := tree.NewFolder(im.nextID(), name)
	folders := map[string]*tree.Folder{".": root}

	for _, rel := range dirs {
		parent := folders[path.Dir(rel)]
		if parent == nil {
			continue
		}
		f := tree.NewFolder(im.nextID(), path.Base(rel))
		parent.Children = append(parent.Children, f)
		folders[rel] = f
	}
	for i, rel := range files {
		parent := folders[path.Dir(rel)]
		if parent == nil {
			continue
		}
		parent.Children = append(parent.Children, tree.NewFile(im.nextID(), path.Base(rel), tree.EncodePayload(bodies[i])))
	}
	return root
}

func (im *Importer) nextID() tree.ID {
	return tree.ID(im.ids.Next())
}
