package source

type (
	// FileID identifies a file within a FileSet.
	FileID uint32
	// FileFlags records how the content was obtained and normalized.
	FileFlags uint8
)

const (
	// FileVirtual marks content that did not come from disk (tests, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileNormalizedNFC
)

// File is one loaded source text.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineStarts holds the byte offset at which every line begins; LineStarts[0] == 0.
	LineStarts []uint32
	Hash       [32]byte
	Flags      FileFlags
}

// LineCol is a 1-based position. Col counts bytes.
type LineCol struct {
	Line uint32
	Col  uint32
}
