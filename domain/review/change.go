package review

import "time"

// shortCommitLen is the abbreviated commit length used throughout
// generated documentation.
const shortCommitLen = 7

// GitDiff describes the change at the head of the repository under review.
type GitDiff struct {
	commit    string
	author    string
	timestamp time.Time
	message   string
	added     []string
	modified  []string
	deleted   []string
}

// NewGitDiff creates a GitDiff. The commit hash is abbreviated to seven
// characters.
func NewGitDiff(commit, author string, timestamp time.Time, message string, added, modified, deleted []string) GitDiff {
	if len(commit) > shortCommitLen {
		commit = commit[:shortCommitLen]
	}

	a := make([]string, len(added))
	copy(a, added)
	m := make([]string, len(modified))
	copy(m, modified)
	d := make([]string, len(deleted))
	copy(d, deleted)

	return GitDiff{
		commit:    commit,
		author:    author,
		timestamp: timestamp,
		message:   message,
		added:     a,
		modified:  m,
		deleted:   d,
	}
}

// Commit returns the abbreviated commit hash.
func (g GitDiff) Commit() string { return g.commit }

// Author returns the commit author.
func (g GitDiff) Author() string { return g.author }

// Timestamp returns the commit timestamp.
func (g GitDiff) Timestamp() time.Time { return g.timestamp }

// Message returns the commit message.
func (g GitDiff) Message() string { return g.message }

// Added returns the paths added by the commit.
func (g GitDiff) Added() []string {
	paths := make([]string, len(g.added))
	copy(paths, g.added)
	return paths
}

// Modified returns the paths modified by the commit.
func (g GitDiff) Modified() []string {
	paths := make([]string, len(g.modified))
	copy(paths, g.modified)
	return paths
}

// Deleted returns the paths deleted by the commit.
func (g GitDiff) Deleted() []string {
	paths := make([]string, len(g.deleted))
	copy(paths, g.deleted)
	return paths
}

// AllChangedFiles returns added, modified, and deleted paths in that order.
func (g GitDiff) AllChangedFiles() []string {
	paths := make([]string, 0, len(g.added)+len(g.modified)+len(g.deleted))
	paths = append(paths, g.added...)
	paths = append(paths, g.modified...)
	paths = append(paths, g.deleted...)
	return paths
}

// IsEmpty reports whether the diff carries no commit. Extraction outside a
// git repository produces an empty diff.
func (g GitDiff) IsEmpty() bool { return g.commit == "" }
