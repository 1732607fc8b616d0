/*
Package archive packs tree nodes into archives and unpacks archives into
folder subtrees.

Formats:
  - zip: github.com/klauspost/compress/zip (deflate)
  - tar.gz: archive/tar + github.com/klauspost/compress/gzip
  - tar.zst: archive/tar + github.com/klauspost/compress/zstd

Unpack sniffs the format with mimetype, so callers do not need to trust the
file name. Nested directories inside an archive become nested folders, and
every synthesized node takes a fresh id from the configured IDSource.

Entry names are cleaned before use: empty, "." and ".." segments are dropped,
so an archive can never place nodes outside the folder it unpacks into.

Example Usage:

	arch := archive.New(store.IDs(), logger)
	data, err := arch.ZipEntries(selected)
	folder, err := arch.Unzip(data, "photos.zip")
*/
package archive
