package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitSource locates a script inside a git repository. At most one of Rev, Tag
// and Branch is set; none means HEAD.
type GitSource struct {
	URL    string
	Rev    string
	Tag    string
	Branch string
	// Path is slash separated and relative to the repository root.
	Path string
}

// GitScript is a script read from a commit.
type GitScript struct {
	Source string
	Commit plumbing.Hash
	// Descriptor is the rev, tag or branch that was requested, or HEAD.
	Descriptor string
}

// ErrMissingScriptPath is returned when a GitSource names no file.
var ErrMissingScriptPath = errors.New("git source: script path required")

// Fetch reads Path at the requested revision. URLs naming a local directory
// (optionally prefixed with file://) are opened in place; anything else is
// cloned into memory.
func (g GitSource) Fetch(ctx context.Context) (*GitScript, error) {
	url := strings.TrimSpace(g.URL)
	if url == "" {
		return nil, fmt.Errorf("git source: URL required")
	}
	scriptPath := strings.TrimSpace(g.Path)
	if scriptPath == "" {
		return nil, ErrMissingScriptPath
	}

	revision, descriptor, err := g.revision()
	if err != nil {
		return nil, err
	}

	repo, err := g.open(ctx, url)
	if err != nil {
		return nil, err
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("git commit %s: %w", hash, err)
	}
	file, err := commit.File(path.Clean(filepath.ToSlash(scriptPath)))
	if err != nil {
		return nil, fmt.Errorf("git source %s@%s: %s: %w", url, descriptor, scriptPath, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("git source %s@%s: read %s: %w", url, descriptor, scriptPath, err)
	}
	return &GitScript{Source: contents, Commit: *hash, Descriptor: descriptor}, nil
}

func (g GitSource) open(ctx context.Context, url string) (*git.Repository, error) {
	if dir, ok := localRepositoryDir(url); ok {
		repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("git open %s: %w", dir, err)
		}
		return repo, nil
	}

	opts := &git.CloneOptions{URL: url, Tags: git.AllTags}
	if branch := strings.TrimSpace(g.Branch); branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("git clone %s: %w", url, err)
	}
	return repo, nil
}

func (g GitSource) revision() (plumbing.Revision, string, error) {
	rev := strings.TrimSpace(g.Rev)
	tag := strings.TrimSpace(g.Tag)
	branch := strings.TrimSpace(g.Branch)
	set := 0
	for _, v := range []string{rev, tag, branch} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return "", "", fmt.Errorf("git source: only one of rev, tag, or branch may be set")
	}
	switch {
	case rev != "":
		return plumbing.Revision(rev), rev, nil
	case tag != "":
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	case branch != "":
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return plumbing.Revision(plumbing.HEAD), string(plumbing.HEAD), nil
}

func localRepositoryDir(url string) (string, bool) {
	dir := strings.TrimPrefix(url, "file://")
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}
