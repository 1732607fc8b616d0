package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// MaxUnpackedBytes bounds the total decompressed size of one archive.
const MaxUnpackedBytes = 256 << 20

var (
	ErrCorrupt           = errors.New("archive is corrupt")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrTooLarge          = errors.New("archive expands beyond size limit")
)

// Format names an archive container.
type Format string

const (
	FormatZip     Format = "zip"
	FormatTarGzip Format = "tar.gz"
	FormatTarZstd Format = "tar.zst"
)

// Extension is the file name suffix for f, with the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat accepts a format name as used in query strings.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "zip":
		return FormatZip, nil
	case "tar.gz", "tgz", "gzip":
		return FormatTarGzip, nil
	case "tar.zst", "tzst", "zstd":
		return FormatTarZstd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Archiver converts between nodes and archive bytes.
type Archiver struct {
	ids    tree.IDSource
	logger *zap.Logger
}

// New creates an archiver drawing node ids from ids.
func New(ids tree.IDSource, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{ids: ids, logger: logger}
}

// entry is one flattened archive member.
type entry struct {
	name string
	dir  bool
	data []byte
}

// ZipEntries packs nodes into a zip archive mirroring their hierarchy.
func (a *Archiver) ZipEntries(nodes []tree.Node) ([]byte, error) {
	return a.Pack(nodes, FormatZip)
}

// Pack writes nodes into an archive of the given format.
func (a *Archiver) Pack(nodes []tree.Node, format Format) ([]byte, error) {
	entries := a.flatten(nodes)

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatZip:
		err = writeZip(&buf, entries)
	case FormatTarGzip:
		err = writeTarGzip(&buf, entries)
	case FormatTarZstd:
		err = writeTarZstd(&buf, entries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", format, err)
	}

	a.logger.Debug("Packed archive",
		zap.String("format", string(format)),
		zap.Int("entries", len(entries)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Unzip reads a zip archive into a folder named after the archive.
func (a *Archiver) Unzip(data []byte, name string) (*tree.Folder, error) {
	entries, err := readZip(data)
	if err != nil {
		return nil, err
	}
	return a.build(entries, name), nil
}

// Unpack detects the archive format and reads it into a folder named after
// the archive.
func (a *Archiver) Unpack(data []byte, name string) (*tree.Folder, error) {
	format, err := Detect(data)
	if err != nil {
		return nil, err
	}

	var entries []entry
	switch format {
	case FormatZip:
		entries, err = readZip(data)
	case FormatTarGzip:
		entries, err = readTarGzip(data)
	case FormatTarZstd:
		entries, err = readTarZstd(data)
	}
	if err != nil {
		return nil, err
	}
	return a.build(entries, name), nil
}

// Detect sniffs the container format of data.
func Detect(data []byte) (Format, error) {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/zip"):
			return FormatZip, nil
		case m.Is("application/gzip"):
			return FormatTarGzip, nil
		case m.Is("application/zstd"):
			return FormatTarZstd, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// FolderName strips a known archive suffix from name.
func FolderName(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".tar.gz", ".tar.zst", ".tgz", ".tzst", ".zip"} {
		if strings.HasSuffix(lower, suffix) && len(name) > len(suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	if name == "" {
		return "archive"
	}
	return name
}

// ============================================================================
// Tree <-> entries
// ============================================================================

func (a *Archiver) flatten(nodes []tree.Node) []entry {
	var out []entry
	var visit func(nodes []tree.Node, prefix string)
	visit = func(nodes []tree.Node, prefix string) {
		for _, n := range nodes {
			switch v := n.(type) {
			case *tree.Folder:
				dir := prefix + v.Name + "/"
				out = append(out, entry{name: dir, dir: true})
				visit(v.Children, dir)
			case *tree.File:
				out = append(out, entry{name: prefix + v.Name, data: v.Content.Bytes()})
			}
		}
	}
	visit(nodes, "")
	return out
}

// build turns archive entries into a folder subtree. Intermediate
// directories missing from the archive are created on demand.
func (a *Archiver) build(entries []entry, name string) *tree.Folder {
	root := tree.NewFolder(a.nextID(), FolderName(name))
	dirs := map[string]*tree.Folder{"": root}

	var folderFor func(dir string) *tree.Folder
	folderFor = func(dir string) *tree.Folder {
		if f, ok := dirs[dir]; ok {
			return f
		}
		parentDir, base := splitDir(dir)
		parent := folderFor(parentDir)
		f := tree.NewFolder(a.nextID(), base)
		parent.Children = append(parent.Children, f)
		dirs[dir] = f
		return f
	}

	files := 0
	for _, e := range entries {
		clean := cleanName(e.name)
		if clean == "" {
			continue
		}
		if e.dir {
			folderFor(clean)
			continue
		}
		dir, base := splitDir(clean)
		parent := folderFor(dir)
		parent.Children = append(parent.Children, tree.NewFile(a.nextID(), base, tree.EncodePayload(e.data)))
		files++
	}

	a.logger.Debug("Unpacked archive",
		zap.String("name", name),
		zap.Int("files", files),
		zap.Int("folders", len(dirs)-1))
	return root
}

func (a *Archiver) nextID() tree.ID {
	return tree.ID(a.ids.Next())
}

// cleanName normalizes an entry name to slash-separated segments with no
// empty, "." or ".." parts.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}

func splitDir(p string) (dir, base string) {
	dir, base = path.Split(p)
	return strings.TrimSuffix(dir, "/"), base
}

// ============================================================================
// Zip
// ============================================================================

func writeZip(w io.Writer, entries []entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		hdr.Modified = time.Now()
		if e.dir {
			hdr.Method = zip.Store
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if !e.dir {
			if _, err := fw.Write(e.data); err != nil {
				return err
			}
		}
	}
	return zw.Close()
}

func readZip(data []byte) ([]entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var total int64
	entries := make([]entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			entries = append(entries, entry{name: f.Name, dir: true})
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.Name, err)
		}
		body, err := readLimited(rc, &total)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		entries = append(entries, entry{name: f.Name, data: body})
	}
	return entries, nil
}

// ============================================================================
// Tar
// ============================================================================

func writeTar(w io.Writer, entries []entry) error {
	tw := tar.NewWriter(w)
	now := time.Now()
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, ModTime: now}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = 0o644
			hdr.Size = int64(len(e.data))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !e.dir {
			if _, err := tw.Write(e.data); err != nil {
				return err
			}
		}
	}
	return tw.Close()
}

func writeTarGzip(w io.Writer, entries []entry) error {
	gz := gzip.NewWriter(w)
	if err := writeTar(gz, entries); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func writeTarZstd(w io.Writer, entries []entry) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := writeTar(enc, entries); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func readTar(r io.Reader) ([]entry, error) {
	tr := tar.NewReader(r)
	var total int64
	var entries []entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			entries = append(entries, entry{name: hdr.Name, dir: true})
		case tar.TypeReg:
			body, err := readLimited(tr, &total)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", hdr.Name, err)
			}
			entries = append(entries, entry{name: hdr.Name, data: body})
		}
	}
}

func readTarGzip(data []byte) ([]entry, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer gz.Close()
	return readTar(gz)
}

func readTarZstd(data []byte) ([]entry, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer dec.Close()
	return readTar(dec)
}

// readLimited reads r fully, counting against the archive-wide budget.
func readLimited(r io.Reader, total *int64) ([]byte, error) {
	remaining := MaxUnpackedBytes - *total
	body, err := io.ReadAll(io.LimitReader(r, remaining+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if int64(len(body)) > remaining {
		return nil, ErrTooLarge
	}
	*total += int64(len(body))
	return body, nil
}
