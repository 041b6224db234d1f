package docs

import "time"

// FeatureRef is a lightweight reference to a feature in the memory graph.
type FeatureRef struct {
	id    string
	title string
}

// NewFeatureRef creates a FeatureRef.
func NewFeatureRef(id, title string) FeatureRef {
	return FeatureRef{id: id, title: title}
}

// ID returns the feature identifier.
func (f FeatureRef) ID() string { return f.id }

// Title returns the feature title.
func (f FeatureRef) Title() string { return f.title }

// MemoryGraph records the commit, feature, and file relationships of the
// latest review for assistant export.
type MemoryGraph struct {
	commit    string
	features  []FeatureRef
	files     []string
	timestamp time.Time
}

// NewMemoryGraph creates a MemoryGraph.
func NewMemoryGraph(commit string, features []FeatureRef, files []string, timestamp time.Time) MemoryGraph {
	fs := make([]FeatureRef, len(features))
	copy(fs, features)
	fl := make([]string, len(files))
	copy(fl, files)

	return MemoryGraph{
		commit:    commit,
		features:  fs,
		files:     fl,
		timestamp: timestamp,
	}
}

// GraphFromIndex derives the memory graph of a document index.
func GraphFromIndex(d DocumentIndex) MemoryGraph {
	refs := make([]FeatureRef, 0, len(d.features))
	for _, f := range d.features {
		refs = append(refs, NewFeatureRef(f.id, f.title))
	}
	return NewMemoryGraph(d.commit, refs, d.refs.FilesChanged(), d.timestamp)
}

// Commit returns the commit the graph describes.
func (m MemoryGraph) Commit() string { return m.commit }

// Features returns the feature references.
func (m MemoryGraph) Features() []FeatureRef {
	fs := make([]FeatureRef, len(m.features))
	copy(fs, m.features)
	return fs
}

// Files returns the file paths the change touched.
func (m MemoryGraph) Files() []string {
	fl := make([]string, len(m.files))
	copy(fl, m.files)
	return fl
}

// Timestamp returns when the graph was generated.
func (m MemoryGraph) Timestamp() time.Time { return m.timestamp }
