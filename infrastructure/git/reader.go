// Package git reads commit information from local repositories. Two
// implementations are provided: a pure-Go reader built on go-git and a
// native-binary reader built on Gitea's git module.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/memdocs-io/memdocs/domain/review"
)

// ErrNoRepository indicates the path is not inside a git repository or the
// repository has no commits yet.
var ErrNoRepository = errors.New("not a git repository")

// Reader reads the change history of a local repository.
type Reader interface {
	// HeadCommit returns the change at HEAD relative to its first parent.
	HeadCommit(ctx context.Context, repoPath string) (review.GitDiff, error)

	// ChangedFiles returns the change at the given commit relative to its
	// first parent. An initial commit reports every file as added.
	ChangedFiles(ctx context.Context, repoPath, sha string) (review.GitDiff, error)
}

// Reader provider names.
const (
	ProviderGoGit = "gogit"
	ProviderGitea = "gitea"
)

// NewReader creates a Reader for the named provider. An empty name selects
// the go-git reader.
func NewReader(provider string, logger *slog.Logger) (Reader, error) {
	switch provider {
	case "", ProviderGoGit:
		return NewGoGitReader(logger), nil
	case ProviderGitea:
		return NewGiteaReader(logger)
	default:
		return nil, fmt.Errorf("unknown git provider: %s", provider)
	}
}
