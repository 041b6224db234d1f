package memory

import "time"

// Document is the metadata stored alongside one indexed vector: which
// document and chunk it came from, and what the chunk describes.
type Document struct {
	docID     string
	chunkText string
	features  []string
	filePaths []string
	timestamp time.Time
}

// NewDocument creates a Document.
func NewDocument(docID, chunkText string, features, filePaths []string, timestamp time.Time) Document {
	fs := make([]string, len(features))
	copy(fs, features)
	fp := make([]string, len(filePaths))
	copy(fp, filePaths)

	return Document{
		docID:     docID,
		chunkText: chunkText,
		features:  fs,
		filePaths: fp,
		timestamp: timestamp,
	}
}

// DocID returns the source document identifier.
func (d Document) DocID() string { return d.docID }

// ChunkText returns the chunk text the vector embeds.
func (d Document) ChunkText() string { return d.chunkText }

// Features returns the feature titles of the source document.
func (d Document) Features() []string {
	fs := make([]string, len(d.features))
	copy(fs, d.features)
	return fs
}

// FilePaths returns the file paths the source document covers.
func (d Document) FilePaths() []string {
	fp := make([]string, len(d.filePaths))
	copy(fp, d.filePaths)
	return fp
}

// Timestamp returns when the document was indexed.
func (d Document) Timestamp() time.Time { return d.timestamp }

// Preview returns the first n characters of the chunk text.
func (d Document) Preview(n int) string {
	if n <= 0 || len(d.chunkText) <= n {
		return d.chunkText
	}
	return d.chunkText[:n]
}
