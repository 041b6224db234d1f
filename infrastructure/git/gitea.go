package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	giteagit "code.gitea.io/gitea/modules/git"
	"code.gitea.io/gitea/modules/git/gitcmd"
	"code.gitea.io/gitea/modules/setting"

	"github.com/memdocs-io/memdocs/domain/review"
)

// GiteaReader implements Reader using Gitea's git module, which shells out
// to the native git binary.
type GiteaReader struct {
	logger *slog.Logger
}

var giteaInitOnce sync.Once
var giteaInitErr error

// NewGiteaReader creates a GiteaReader. It initializes the Gitea git module
// once, verifying the git binary is available.
func NewGiteaReader(logger *slog.Logger) (*GiteaReader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git is not installed or not in PATH: install git and try again")
	}

	giteaInitOnce.Do(func() {
		// Gitea's git module requires a HomePath for its git environment.
		// Use a temporary directory so git config is isolated.
		home, err := os.MkdirTemp("", "memdocs-git-home-*")
		if err != nil {
			giteaInitErr = fmt.Errorf("create git home directory: %w", err)
			return
		}
		setting.Git.HomePath = home

		giteaInitErr = giteagit.InitSimple()
	})
	if giteaInitErr != nil {
		return nil, fmt.Errorf("init git: %w", giteaInitErr)
	}

	return &GiteaReader{logger: logger}, nil
}

// HeadCommit returns the change at HEAD relative to its first parent.
func (r *GiteaReader) HeadCommit(ctx context.Context, repoPath string) (review.GitDiff, error) {
	return r.ChangedFiles(ctx, repoPath, "HEAD")
}

// ChangedFiles returns the change at the given commit relative to its first
// parent.
func (r *GiteaReader) ChangedFiles(ctx context.Context, repoPath, sha string) (review.GitDiff, error) {
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); os.IsNotExist(err) {
		return review.GitDiff{}, ErrNoRepository
	}

	repo, err := giteagit.OpenRepository(ctx, repoPath)
	if err != nil {
		return review.GitDiff{}, ErrNoRepository
	}
	defer func() { _ = repo.Close() }()

	commit, err := repo.GetCommit(sha)
	if err != nil {
		if sha == "HEAD" {
			// A repository with no commits has no HEAD.
			return review.GitDiff{}, ErrNoRepository
		}
		return review.GitDiff{}, fmt.Errorf("get commit %s: %w", sha, err)
	}

	// --root makes the initial commit diff against the empty tree.
	stdout, _, err := gitcmd.NewCommand("diff-tree", "--no-commit-id", "--name-status", "-r", "--root").
		AddDynamicArguments(commit.ID.String()).
		RunStdString(ctx, &gitcmd.RunOpts{Dir: repoPath})
	if err != nil {
		return review.GitDiff{}, fmt.Errorf("diff commit: %w", err)
	}

	added, modified, deleted := parseNameStatus(stdout)

	return review.NewGitDiff(
		commit.ID.String(),
		formatAuthor(commit.Author.Name, commit.Author.Email),
		commit.Author.When,
		strings.TrimSpace(commit.CommitMessage),
		added, modified, deleted,
	), nil
}

// parseNameStatus parses `git diff-tree --name-status` output. Renames count
// as modifications of the new path.
func parseNameStatus(stdout string) (added, modified, deleted []string) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		path := fields[len(fields)-1]

		switch {
		case status == "A":
			added = append(added, path)
		case status == "D":
			deleted = append(deleted, path)
		case status == "M" || strings.HasPrefix(status, "R"):
			modified = append(modified, path)
		}
	}
	return added, modified, deleted
}

var _ Reader = (*GiteaReader)(nil)
