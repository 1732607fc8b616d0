package archive

import (
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/shared/id"
)

func newArchiver() *Archiver {
	clock := time.UnixMilli(5000)
	return New(id.NewSequenceWithClock(func() time.Time { return clock }), nil)
}

// nested builds:
//
//	Project/
//	  src/
//	    main.go
//	  README.md
//	top.txt
func nested() []tree.Node {
	src := tree.NewFolder(2, "src")
	src.Children = append(src.Children, tree.NewFile(3, "main.go", tree.TextPayload("package main")))
	project := tree.NewFolder(1, "Project")
	project.Children = append(project.Children, src, tree.NewFile(4, "README.md", tree.TextPayload("# Project")))
	return []tree.Node{project, tree.NewFile(5, "top.txt", tree.TextPayload("top"))}
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func text(t *testing.T, n tree.Node) string {
	t.Helper()
	f, ok := n.(*tree.File)
	require.True(t, ok, "%s is not a file", n.NodeName())
	data, err := f.Content.Decode()
	require.NoError(t, err)
	return string(data)
}

func TestZipEntriesMirrorsHierarchy(t *testing.T) {
	data, err := newArchiver().ZipEntries(nested())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Project/",
		"Project/src/",
		"Project/src/main.go",
		"Project/README.md",
		"top.txt",
	}, zipNames(t, data))
}

func TestUnzipPreservesNesting(t *testing.T) {
	a := newArchiver()
	data, err := a.ZipEntries(nested())
	require.NoError(t, err)

	root, err := a.Unzip(data, "bundle.zip")
	require.NoError(t, err)
	assert.Equal(t, "bundle", root.Name)
	require.Len(t, root.Children, 2)

	project := root.Children[0].(*tree.Folder)
	assert.Equal(t, "Project", project.Name)
	require.Len(t, project.Children, 2)

	src := project.Children[0].(*tree.Folder)
	assert.Equal(t, "src", src.Name)
	require.Len(t, src.Children, 1)
	assert.Equal(t, "package main", text(t, src.Children[0]))
	assert.Equal(t, "# Project", text(t, project.Children[1]))
	assert.Equal(t, "top", text(t, root.Children[1]))

	require.NoError(t, tree.Validate([]tree.Node{root}))
	for _, nid := range tree.IDs([]tree.Node{root}) {
		assert.GreaterOrEqual(t, int64(nid), int64(5000))
	}
}

func TestUnpackDetectsFormat(t *testing.T) {
	for _, format := range []Format{FormatZip, FormatTarGzip, FormatTarZstd} {
		t.Run(string(format), func(t *testing.T) {
			a := newArchiver()
			data, err := a.Pack(nested(), format)
			require.NoError(t, err)

			detected, err := Detect(data)
			require.NoError(t, err)
			assert.Equal(t, format, detected)

			root, err := a.Unpack(data, "bundle"+format.Extension())
			require.NoError(t, err)
			assert.Equal(t, "bundle", root.Name)

			stats := tree.NewStore([]tree.Node{root}).Stats()
			assert.Equal(t, 3, stats.Folders)
			assert.Equal(t, 3, stats.Files)
		})
	}
}

func TestUnzipCreatesMissingDirectories(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("a/b/c.txt")
	require.NoError(t, err)
	w.Write([]byte("deep"))
	require.NoError(t, zw.Close())

	root, err := newArchiver().Unzip(buf.Bytes(), "deep.zip")
	require.NoError(t, err)

	a := root.Children[0].(*tree.Folder)
	b := a.Children[0].(*tree.Folder)
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, "deep", text(t, b.Children[0]))
}

func TestUnzipContainsTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../../etc/passwd")
	require.NoError(t, err)
	w.Write([]byte("root:x"))
	require.NoError(t, zw.Close())

	root, err := newArchiver().Unzip(buf.Bytes(), "evil.zip")
	require.NoError(t, err)

	etc := root.Children[0].(*tree.Folder)
	assert.Equal(t, "etc", etc.Name)
	assert.Equal(t, "passwd", etc.Children[0].NodeName())
}

func TestUnzipCorrupt(t *testing.T) {
	_, err := newArchiver().Unzip([]byte("definitely not a zip"), "bad.zip")
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = newArchiver().Unpack([]byte("plain text"), "bad.bin")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPackUndecodablePayload(t *testing.T) {
	a := newArchiver()
	data, err := a.ZipEntries([]tree.Node{tree.NewFile(1, "raw.txt", tree.Payload("not base64!"))})
	require.NoError(t, err)

	root, err := a.Unzip(data, "raw.zip")
	require.NoError(t, err)
	assert.Equal(t, "not base64!", text(t, root.Children[0]))
}

func TestPackUnknownFormat(t *testing.T) {
	_, err := newArchiver().Pack(nested(), Format("rar"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":        FormatZip,
		"zip":     FormatZip,
		".tar.gz": FormatTarGzip,
		"tgz":     FormatTarGzip,
		"TAR.ZST": FormatTarZstd,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("7z")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "photos", FolderName("photos.zip"))
	assert.Equal(t, "Backup", FolderName("Backup.TAR.GZ"))
	assert.Equal(t, "logs", FolderName("logs.tzst"))
	assert.Equal(t, ".zip", FolderName(".zip"))
	assert.Equal(t, "notes.txt", FolderName("notes.txt"))
	assert.Equal(t, "archive", FolderName(""))
}
