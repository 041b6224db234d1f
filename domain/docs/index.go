// Package docs provides the generated documentation schema: feature
// summaries, impact and reference metadata, and the memory graph.
package docs

import (
	"fmt"
	"regexp"
	"time"

	"github.com/memdocs-io/memdocs/domain/review"
)

// MaxTitleLength is the longest accepted feature title.
const MaxTitleLength = 200

// featureIDPattern matches feature identifiers like "feat-001".
var featureIDPattern = regexp.MustCompile(`^feat-\d{3}$`)

// FeatureSummary describes one feature the change introduced or touched.
type FeatureSummary struct {
	id          string
	title       string
	description string
	risks       []string
	tags        []string
}

// NewFeatureSummary creates a FeatureSummary. The id must match feat-NNN
// and the title must not exceed MaxTitleLength characters.
func NewFeatureSummary(id, title, description string, risks, tags []string) (FeatureSummary, error) {
	if !featureIDPattern.MatchString(id) {
		return FeatureSummary{}, fmt.Errorf("invalid feature id %q: must match feat-NNN", id)
	}
	if len(title) > MaxTitleLength {
		return FeatureSummary{}, fmt.Errorf("feature title exceeds %d characters", MaxTitleLength)
	}

	rs := make([]string, len(risks))
	copy(rs, risks)
	ts := make([]string, len(tags))
	copy(ts, tags)

	return FeatureSummary{
		id:          id,
		title:       title,
		description: description,
		risks:       rs,
		tags:        ts,
	}, nil
}

// ID returns the feature identifier.
func (f FeatureSummary) ID() string { return f.id }

// Title returns the feature title.
func (f FeatureSummary) Title() string { return f.title }

// Description returns the feature description, possibly empty.
func (f FeatureSummary) Description() string { return f.description }

// Risks returns the risk notes attached to the feature.
func (f FeatureSummary) Risks() []string {
	rs := make([]string, len(f.risks))
	copy(rs, f.risks)
	return rs
}

// Tags returns the feature tags.
func (f FeatureSummary) Tags() []string {
	ts := make([]string, len(f.tags))
	copy(ts, f.tags)
	return ts
}

// HasTag reports whether the feature carries the given tag.
func (f FeatureSummary) HasTag(tag string) bool {
	for _, t := range f.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ImpactSummary describes the blast radius of the change.
type ImpactSummary struct {
	apis              []string
	breakingChanges   []string
	testsAdded        int
	testsModified     int
	migrationRequired bool
}

// NewImpactSummary creates an ImpactSummary.
func NewImpactSummary(apis, breakingChanges []string, testsAdded, testsModified int, migrationRequired bool) ImpactSummary {
	a := make([]string, len(apis))
	copy(a, apis)
	b := make([]string, len(breakingChanges))
	copy(b, breakingChanges)

	return ImpactSummary{
		apis:              a,
		breakingChanges:   b,
		testsAdded:        testsAdded,
		testsModified:     testsModified,
		migrationRequired: migrationRequired,
	}
}

// APIs returns the affected API surfaces.
func (i ImpactSummary) APIs() []string {
	a := make([]string, len(i.apis))
	copy(a, i.apis)
	return a
}

// BreakingChanges returns the breaking change descriptions.
func (i ImpactSummary) BreakingChanges() []string {
	b := make([]string, len(i.breakingChanges))
	copy(b, i.breakingChanges)
	return b
}

// TestsAdded returns the number of tests the change added.
func (i ImpactSummary) TestsAdded() int { return i.testsAdded }

// TestsModified returns the number of tests the change modified.
func (i ImpactSummary) TestsModified() int { return i.testsModified }

// MigrationRequired reports whether the change requires a migration.
func (i ImpactSummary) MigrationRequired() bool { return i.migrationRequired }

// ReferenceSummary links the change to its pull request, issues, files,
// and commits. A zero PR means no pull request.
type ReferenceSummary struct {
	pr           int
	issues       []int
	filesChanged []string
	commits      []string
}

// NewReferenceSummary creates a ReferenceSummary.
func NewReferenceSummary(pr int, issues []int, filesChanged, commits []string) ReferenceSummary {
	is := make([]int, len(issues))
	copy(is, issues)
	fc := make([]string, len(filesChanged))
	copy(fc, filesChanged)
	cs := make([]string, len(commits))
	copy(cs, commits)

	return ReferenceSummary{
		pr:           pr,
		issues:       is,
		filesChanged: fc,
		commits:      cs,
	}
}

// PR returns the pull request number, 0 when none.
func (r ReferenceSummary) PR() int { return r.pr }

// Issues returns the linked issue numbers.
func (r ReferenceSummary) Issues() []int {
	is := make([]int, len(r.issues))
	copy(is, r.issues)
	return is
}

// FilesChanged returns the changed file paths.
func (r ReferenceSummary) FilesChanged() []string {
	fc := make([]string, len(r.filesChanged))
	copy(fc, r.filesChanged)
	return fc
}

// Commits returns the related commit hashes.
func (r ReferenceSummary) Commits() []string {
	cs := make([]string, len(r.commits))
	copy(cs, r.commits)
	return cs
}

// DocumentIndex is the structured summary of one review run.
type DocumentIndex struct {
	commit    string
	timestamp time.Time
	scope     review.Scope
	features  []FeatureSummary
	impacts   ImpactSummary
	refs      ReferenceSummary
}

// NewDocumentIndex creates a DocumentIndex.
func NewDocumentIndex(
	commit string,
	timestamp time.Time,
	scope review.Scope,
	features []FeatureSummary,
	impacts ImpactSummary,
	refs ReferenceSummary,
) DocumentIndex {
	fs := make([]FeatureSummary, len(features))
	copy(fs, features)

	return DocumentIndex{
		commit:    commit,
		timestamp: timestamp,
		scope:     scope,
		features:  fs,
		impacts:   impacts,
		refs:      refs,
	}
}

// DocID returns the document identifier: the commit hash, or "unknown"
// when the review ran outside a git repository.
func (d DocumentIndex) DocID() string {
	if d.commit == "" {
		return "unknown"
	}
	return d.commit
}

// Commit returns the reviewed commit hash, possibly empty.
func (d DocumentIndex) Commit() string { return d.commit }

// Timestamp returns when the document was generated.
func (d DocumentIndex) Timestamp() time.Time { return d.timestamp }

// Scope returns the review scope.
func (d DocumentIndex) Scope() review.Scope { return d.scope }

// Features returns the feature summaries.
func (d DocumentIndex) Features() []FeatureSummary {
	fs := make([]FeatureSummary, len(d.features))
	copy(fs, d.features)
	return fs
}

// FeatureTitles returns every feature title, in order.
func (d DocumentIndex) FeatureTitles() []string {
	titles := make([]string, 0, len(d.features))
	for _, f := range d.features {
		titles = append(titles, f.title)
	}
	return titles
}

// Impacts returns the impact summary.
func (d DocumentIndex) Impacts() ImpactSummary { return d.impacts }

// Refs returns the reference summary.
func (d DocumentIndex) Refs() ReferenceSummary { return d.refs }
