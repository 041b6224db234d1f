package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/memdocs-io/memdocs/domain/review"
)

// GoGitReader implements Reader using the go-git library.
type GoGitReader struct {
	logger *slog.Logger
}

// NewGoGitReader creates a GoGitReader.
func NewGoGitReader(logger *slog.Logger) *GoGitReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoGitReader{logger: logger}
}

// HeadCommit returns the change at HEAD relative to its first parent.
func (r *GoGitReader) HeadCommit(ctx context.Context, repoPath string) (review.GitDiff, error) {
	repo, err := r.open(repoPath)
	if err != nil {
		return review.GitDiff{}, err
	}

	head, err := repo.Head()
	if err != nil {
		// A repository with no commits has no HEAD.
		return review.GitDiff{}, ErrNoRepository
	}

	return r.diffAt(repo, head.Hash())
}

// ChangedFiles returns the change at the given commit relative to its first
// parent.
func (r *GoGitReader) ChangedFiles(ctx context.Context, repoPath, sha string) (review.GitDiff, error) {
	repo, err := r.open(repoPath)
	if err != nil {
		return review.GitDiff{}, err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(sha))
	if err != nil {
		return review.GitDiff{}, fmt.Errorf("resolve commit %s: %w", sha, err)
	}

	return r.diffAt(repo, *hash)
}

func (r *GoGitReader) open(repoPath string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

func (r *GoGitReader) diffAt(repo *gogit.Repository, hash plumbing.Hash) (review.GitDiff, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return review.GitDiff{}, fmt.Errorf("get commit: %w", err)
	}

	commitTree, err := commit.Tree()
	if err != nil {
		return review.GitDiff{}, fmt.Errorf("get commit tree: %w", err)
	}

	// The initial commit diffs against an empty tree, so every file
	// shows up as added.
	parentTree := &object.Tree{}
	if len(commit.ParentHashes) > 0 {
		parent, err := repo.CommitObject(commit.ParentHashes[0])
		if err != nil {
			return review.GitDiff{}, fmt.Errorf("get parent commit: %w", err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return review.GitDiff{}, fmt.Errorf("get parent tree: %w", err)
		}
	}

	changes, err := parentTree.Diff(commitTree)
	if err != nil {
		return review.GitDiff{}, fmt.Errorf("compute diff: %w", err)
	}

	var added, modified, deleted []string
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return review.GitDiff{}, fmt.Errorf("diff action: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			added = append(added, change.To.Name)
		case merkletrie.Delete:
			deleted = append(deleted, change.From.Name)
		case merkletrie.Modify:
			modified = append(modified, change.To.Name)
		}
	}

	return review.NewGitDiff(
		commit.Hash.String(),
		formatAuthor(commit.Author.Name, commit.Author.Email),
		commit.Author.When,
		strings.TrimSpace(commit.Message),
		added, modified, deleted,
	), nil
}

func formatAuthor(name, email string) string {
	if email == "" {
		return name
	}
	return name + " <" + email + ">"
}

var _ Reader = (*GoGitReader)(nil)
