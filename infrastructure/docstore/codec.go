package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/review"
)

// On-disk JSON schema for a document index.
type documentJSON struct {
	DocID     string        `json:"doc_id"`
	Commit    string        `json:"commit"`
	Timestamp time.Time     `json:"timestamp"`
	Scope     scopeJSON     `json:"scope"`
	Features  []featureJSON `json:"features"`
	Impacts   impactsJSON   `json:"impacts"`
	Refs      refsJSON      `json:"refs"`
}

type scopeJSON struct {
	Level            string   `json:"level"`
	Paths            []string `json:"paths"`
	Escalated        bool     `json:"escalated"`
	EscalationReason string   `json:"escalation_reason,omitempty"`
}

type featureJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Risk        []string `json:"risk,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type impactsJSON struct {
	APIs              []string `json:"apis"`
	BreakingChanges   []string `json:"breaking_changes"`
	TestsAdded        int      `json:"tests_added"`
	TestsModified     int      `json:"tests_modified"`
	MigrationRequired bool     `json:"migration_required"`
}

type refsJSON struct {
	PR           int      `json:"pr"`
	Issues       []int    `json:"issues"`
	FilesChanged []string `json:"files_changed"`
	Commits      []string `json:"commits"`
}

func encodeDocument(index docs.DocumentIndex) ([]byte, error) {
	scope := index.Scope()
	doc := documentJSON{
		DocID:     index.DocID(),
		Commit:    index.Commit(),
		Timestamp: index.Timestamp(),
		Scope: scopeJSON{
			Level:            scope.Level().String(),
			Paths:            scope.Files(),
			Escalated:        scope.Escalated(),
			EscalationReason: scope.EscalationReason(),
		},
		Impacts: impactsJSON{
			APIs:              index.Impacts().APIs(),
			BreakingChanges:   index.Impacts().BreakingChanges(),
			TestsAdded:        index.Impacts().TestsAdded(),
			TestsModified:     index.Impacts().TestsModified(),
			MigrationRequired: index.Impacts().MigrationRequired(),
		},
		Refs: refsJSON{
			PR:           index.Refs().PR(),
			Issues:       index.Refs().Issues(),
			FilesChanged: index.Refs().FilesChanged(),
			Commits:      index.Refs().Commits(),
		},
	}
	for _, f := range index.Features() {
		doc.Features = append(doc.Features, featureJSON{
			ID:          f.ID(),
			Title:       f.Title(),
			Description: f.Description(),
			Risk:        f.Risks(),
			Tags:        f.Tags(),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

func decodeDocument(data []byte) (docs.DocumentIndex, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return docs.DocumentIndex{}, fmt.Errorf("decode document: %w", err)
	}

	level, err := review.ParseScopeLevel(doc.Scope.Level)
	if err != nil {
		return docs.DocumentIndex{}, fmt.Errorf("decode document: %w", err)
	}
	scope := review.NewScope(level, doc.Scope.Paths)
	if doc.Scope.Escalated {
		scope = scope.WithEscalation(level, doc.Scope.EscalationReason)
	}

	features := make([]docs.FeatureSummary, 0, len(doc.Features))
	for i, f := range doc.Features {
		feature, err := docs.NewFeatureSummary(f.ID, f.Title, f.Description, f.Risk, f.Tags)
		if err != nil {
			return docs.DocumentIndex{}, fmt.Errorf("decode document feature %d: %w", i, err)
		}
		features = append(features, feature)
	}

	impacts := docs.NewImpactSummary(
		doc.Impacts.APIs,
		doc.Impacts.BreakingChanges,
		doc.Impacts.TestsAdded,
		doc.Impacts.TestsModified,
		doc.Impacts.MigrationRequired,
	)
	refs := docs.NewReferenceSummary(doc.Refs.PR, doc.Refs.Issues, doc.Refs.FilesChanged, doc.Refs.Commits)

	return docs.NewDocumentIndex(doc.Commit, doc.Timestamp, scope, features, impacts, refs), nil
}

// graph.json schema.
type graphJSON struct {
	Commit    string             `json:"commit"`
	Features  []graphFeatureJSON `json:"features"`
	Files     []string           `json:"files"`
	Timestamp time.Time          `json:"timestamp"`
}

type graphFeatureJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func encodeGraph(graph docs.MemoryGraph) ([]byte, error) {
	g := graphJSON{
		Commit:    graph.Commit(),
		Files:     graph.Files(),
		Timestamp: graph.Timestamp(),
	}
	for _, f := range graph.Features() {
		g.Features = append(g.Features, graphFeatureJSON{ID: f.ID(), Title: f.Title()})
	}
	return json.MarshalIndent(g, "", "  ")
}

func decodeGraph(data []byte) (docs.MemoryGraph, error) {
	var g graphJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return docs.MemoryGraph{}, fmt.Errorf("decode graph: %w", err)
	}
	features := make([]docs.FeatureRef, 0, len(g.Features))
	for _, f := range g.Features {
		features = append(features, docs.NewFeatureRef(f.ID, f.Title))
	}
	return docs.NewMemoryGraph(g.Commit, features, g.Files, g.Timestamp), nil
}

// symbols.yaml schema.
type symbolsYAML struct {
	Symbols []symbolYAML `yaml:"symbols"`
}

type symbolYAML struct {
	File      string `yaml:"file"`
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Line      int    `yaml:"line"`
	Signature string `yaml:"signature,omitempty"`
}

func encodeSymbols(entries []docs.SymbolEntry) ([]byte, error) {
	out := symbolsYAML{Symbols: make([]symbolYAML, 0, len(entries))}
	for _, e := range entries {
		sym := e.Symbol()
		out.Symbols = append(out.Symbols, symbolYAML{
			File:      e.File(),
			Name:      sym.Name(),
			Kind:      sym.Kind(),
			Line:      sym.Line(),
			Signature: sym.Signature(),
		})
	}
	return yaml.Marshal(out)
}

func decodeSymbols(data []byte) ([]docs.SymbolEntry, error) {
	var in symbolsYAML
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}
	entries := make([]docs.SymbolEntry, 0, len(in.Symbols))
	for _, s := range in.Symbols {
		entries = append(entries, docs.NewSymbolEntry(s.File, review.NewSymbol(s.Name, s.Kind, s.Line, s.Signature)))
	}
	return entries, nil
}
