package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns every file of a compilation.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]FileID)}
}

// Add stores already-normalized content and returns a fresh FileID, even if the
// path was added before.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	path = filepath.ToSlash(filepath.Clean(path))
	fs.files = append(fs.files, File{
		ID:         id,
		Path:       path,
		Content:    content,
		LineStarts: lineStarts(content),
		Hash:       sha256.Sum256(content),
		Flags:      flags,
	})
	fs.index[path] = id
	return id
}

// Load reads a file from disk and adds its normalized content.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from the command line or the manifest
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	content, flags := Normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual normalizes and adds in-memory content.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := Normalize(content)
	return fs.Add(name, content, flags|FileVirtual)
}

// Normalize strips a UTF-8 BOM, rewrites CRLF line endings and applies NFC.
func Normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	content, ok := stripBOM(content)
	if ok {
		flags |= FileHadBOM
	}
	if content, ok = normalizeCRLF(content); ok {
		flags |= FileNormalizedCRLF
	}
	if content, ok = normalizeNFC(content); ok {
		flags |= FileNormalizedNFC
	}
	return content, flags
}

// Get returns the file for id. An unknown id panics.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// Lookup returns the most recent file added under path.
func (fs *FileSet) Lookup(path string) (*File, bool) {
	id, ok := fs.index[filepath.ToSlash(filepath.Clean(path))]
	if !ok {
		return nil, false
	}
	return &fs.files[id], true
}

// Len reports how many files were added.
func (fs *FileSet) Len() int { return len(fs.files) }

// Resolve converts a span into start and end positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	return position(f.LineStarts, span.Start), position(f.LineStarts, span.End)
}

// Line returns the text of a 1-based line without its terminator.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.LineStarts) {
		return ""
	}
	start := f.LineStarts[n-1]
	end := uint32(len(f.Content)) // #nosec G115 -- Add bounds content via lineStarts
	if int(n) < len(f.LineStarts) {
		end = f.LineStarts[n] - 1
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// Text returns the bytes covered by span.
func (f *File) Text(span Span) string {
	if int(span.End) > len(f.Content) || span.Start > span.End {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}
