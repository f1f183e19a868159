package archive

import (
	"fmt"
	"io"
	"os"

	stdzip "archive/zip"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"
)

// zip compression methods the standard library's archive/zip does not
// decode itself but that show up in real-world "optimized factory" zips.
const (
	methodLZMA = 14
	methodZstd = 93
)

// ZipArchive is the default Archive implementation, backed by a file on
// disk opened once for both central-directory parsing (via the standard
// library) and raw byte-range reads (via the same *os.File, by offset).
type ZipArchive struct {
	file    *os.File
	reader  *stdzip.Reader
	entries []Entry
	byName  map[string]int
	byFile  map[string]*stdzip.File
}

// Open parses the zip central directory at path and returns an Archive
// ready for ScriptParser/FlashPlan lookups.
func Open(path string) (*ZipArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: stat %s: %w", path, err)
	}

	zr, err := stdzip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: read central directory of %s: %w", path, err)
	}

	a := &ZipArchive{
		file:   f,
		reader: zr,
		byName: make(map[string]int, len(zr.File)),
		byFile: make(map[string]*stdzip.File, len(zr.File)),
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		dataOffset, err := zf.DataOffset()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("archive: locate data for %s: %w", zf.Name, err)
		}
		e := Entry{
			Name:              zf.Name,
			UncompressedSize:  int64(zf.UncompressedSize64),
			CompressedSize:    int64(zf.CompressedSize64),
			CompressionMethod: zf.Method,
			DataOffset:        dataOffset,
		}
		a.byName[zf.Name] = len(a.entries)
		a.byFile[zf.Name] = zf
		a.entries = append(a.entries, e)
	}

	return a, nil
}

// Close releases the underlying file handle.
func (a *ZipArchive) Close() error {
	return a.file.Close()
}

func (a *ZipArchive) Entries() []Entry {
	return a.entries
}

func (a *ZipArchive) Find(name string) (Entry, bool) {
	idx, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[idx], true
}

func (a *ZipArchive) Blob() Blob {
	return fileBlob{a.file}
}

// DecodeEntry inflates a compressed entry fully into memory. The standard
// library handles method 0 (store) and method 8 (deflate) transparently via
// zf.Open(); methods 14 (LZMA) and 93 (Zstandard) are decoded by hand from
// the raw compressed stream, since archive/zip only ever ships a deflate
// decompressor.
func (a *ZipArchive) DecodeEntry(e Entry) ([]byte, error) {
	zf, ok := a.byFile[e.Name]
	if !ok {
		return nil, fmt.Errorf("archive: unknown entry %s", e.Name)
	}

	switch e.CompressionMethod {
	case stdzip.Store, stdzip.Deflate:
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open %s: %w", e.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)

	case methodZstd:
		raw, err := zf.OpenRaw()
		if err != nil {
			return nil, fmt.Errorf("archive: open raw %s: %w", e.Name, err)
		}
		dec, err := zstd.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("archive: zstd decoder for %s: %w", e.Name, err)
		}
		defer dec.Close()
		return io.ReadAll(dec)

	case methodLZMA:
		raw, err := zf.OpenRaw()
		if err != nil {
			return nil, fmt.Errorf("archive: open raw %s: %w", e.Name, err)
		}
		dec, err := lzma.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("archive: lzma decoder for %s: %w", e.Name, err)
		}
		return io.ReadAll(dec)

	default:
		return nil, fmt.Errorf("archive: unsupported compression method %d for %s", e.CompressionMethod, e.Name)
	}
}

// fileBlob adapts *os.File to the Blob interface.
type fileBlob struct {
	f *os.File
}

func (b fileBlob) ReadAt(p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b fileBlob) Size() int64 {
	info, err := b.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}
