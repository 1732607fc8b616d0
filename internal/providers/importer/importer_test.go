package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/shared/id"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func childNames(f *tree.Folder) []string {
	out := make([]string, len(f.Children))
	for i, c := range f.Children {
		out[i] = c.NodeName()
	}
	return out
}

func decoded(t *testing.T, n tree.Node) string {
	t.Helper()
	data, err := n.(*tree.File).Content.Decode()
	require.NoError(t, err)
	return string(data)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"one.txt": "1", "two.bin": "\x00\x01"})

	im := New(id.NewSequence(), DefaultOptions())
	files, err := im.Files(context.Background(), []string{
		filepath.Join(dir, "two.bin"),
		filepath.Join(dir, "one.txt"),
	})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "two.bin", files[0].Name)
	assert.Equal(t, "one.txt", files[1].Name)
	assert.Equal(t, "\x00\x01", decoded(t, files[0]))
	assert.NotEqual(t, files[0].ID, files[1].ID)
}

func TestFilesErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"big.txt": "0123456789"})

	opts := DefaultOptions()
	opts.MaxFileBytes = 4
	im := New(id.NewSequence(), opts)

	_, err := im.Files(context.Background(), []string{filepath.Join(dir, "big.txt")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = im.Files(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	writeFiles(t, root, map[string]string{
		".gitignore":          "*.log\n",
		"a.txt":               "alpha",
		"sub/b.txt":           "beta",
		"sub/deep/c.log":      "noise",
		"node_modules/x.js":   "vendored",
		"sub/node_modules/y":  "vendored",
		"sub/deep/keep/d.txt": "delta",
	})

	im := New(id.NewSequence(), DefaultOptions())
	folder, err := im.Dir(context.Background(), root, []string{"node_modules"})
	require.NoError(t, err)

	assert.Equal(t, "project", folder.Name)
	assert.Equal(t, []string{"sub", ".gitignore", "a.txt"}, childNames(folder))

	sub := folder.Children[0].(*tree.Folder)
	assert.Equal(t, []string{"deep", "b.txt"}, childNames(sub))
	assert.Equal(t, "beta", decoded(t, sub.Children[1]))

	deep := sub.Children[0].(*tree.Folder)
	assert.Equal(t, []string{"keep"}, childNames(deep))
	keep := deep.Children[0].(*tree.Folder)
	assert.Equal(t, "delta", decoded(t, keep.Children[0]))

	assert.NoError(t, tree.Validate([]tree.Node{folder}))
}

func TestDirSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"small.txt": "ok", "large.txt": "0123456789"})

	opts := DefaultOptions()
	opts.MaxFileBytes = 4
	folder, err := New(id.NewSequence(), opts).Dir(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"small.txt"}, childNames(folder))
}

func TestDirErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.txt": "x"})
	im := New(id.NewSequence(), DefaultOptions())

	_, err := im.Dir(context.Background(), filepath.Join(dir, "file.txt"), nil)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = im.Dir(context.Background(), filepath.Join(dir, "nope"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = im.Dir(context.Background(), dir, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestDirCancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(id.NewSequence(), DefaultOptions()).Dir(ctx, root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
