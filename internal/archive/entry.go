// Package archive is the ZipArchive collaborator consumed by internal/fastboot.
//
// The core (internal/fastboot, internal/chunkwriter) never parses a zip
// central directory itself; it only asks an Archive for entry metadata and
// byte ranges. This package is the one concrete adapter shipped with the
// repo, built on the standard library's archive/zip plus two decoders for
// zip compression methods the stdlib doesn't cover.
package archive

// Entry describes one file inside a zip archive, as required by
// StreamingEntryReader.
type Entry struct {
	Name               string
	UncompressedSize   int64
	CompressedSize     int64
	CompressionMethod  uint16
	// DataOffset is the byte offset of the entry's payload within the
	// outer archive blob, i.e. past the local file header and its
	// variable-length name/extra fields.
	DataOffset int64
}

// Blob is a read-only random-access view over the bytes of the outer
// archive. ZipArchive serves it from its *os.File through the fileBlob
// adapter, since *os.File itself has no Size method.
type Blob interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
}

// Archive is the collaborator the core depends on for entry lookup and
// payload access. It assumes central-directory correctness (spec §3).
type Archive interface {
	// Entries returns every file entry in central-directory order.
	Entries() []Entry
	// Find resolves a file_ref (already prefixed by the script's
	// containing directory) to its entry metadata.
	Find(name string) (Entry, bool)
	// Blob exposes the outer archive bytes for stored (uncompressed)
	// entries, so StreamingEntryReader can slice directly into it.
	Blob() Blob
	// DecodeEntry performs a one-shot decode of a compressed entry into
	// memory. Only called when an entry's CompressionMethod is non-zero.
	DecodeEntry(e Entry) ([]byte, error)
}
