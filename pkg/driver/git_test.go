package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type scriptRepo struct {
	dir     string
	repo    *git.Repository
	commits []plumbing.Hash
}

// newScriptRepo creates a repository whose history is:
// master: v1 (tagged v1) -> v2, feature: v2 -> v3, with HEAD on feature.
func newScriptRepo(t *testing.T) *scriptRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	r := &scriptRepo{dir: dir, repo: repo}

	r.commit(t, "scripts/main.tl", `(print "v1")`)
	if _, err := repo.CreateTag("v1", r.commits[0], nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	r.commit(t, "scripts/main.tl", `(print "v2")`)

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	r.commit(t, "scripts/main.tl", `(print "v3")`)
	return r
}

func (r *scriptRepo) commit(t *testing.T, rel, contents string) {
	t.Helper()
	full := filepath.Join(r.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(contents+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if _, err := worktree.Add(rel); err != nil {
		t.Fatalf("Add %s: %v", rel, err)
	}
	hash, err := worktree.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Trivial CLI",
			Email: "trivial@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	r.commits = append(r.commits, hash)
}

func TestGitSourceFetchRevisions(t *testing.T) {
	r := newScriptRepo(t)
	cases := []struct {
		name       string
		src        GitSource
		want       string
		descriptor string
		commit     int
	}{
		{"head", GitSource{}, "v3", "HEAD", 2},
		{"branch", GitSource{Branch: "master"}, "v2", "master", 1},
		{"tag", GitSource{Tag: "v1"}, "v1", "v1", 0},
		{"rev", GitSource{Rev: r.commits[0].String()}, "v1", r.commits[0].String(), 0},
		{"feature", GitSource{Branch: "feature"}, "v3", "feature", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := tc.src
			src.URL = r.dir
			src.Path = "scripts/main.tl"
			script, err := src.Fetch(context.Background())
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if want := `(print "` + tc.want + `")` + "\n"; script.Source != want {
				t.Fatalf("Source = %q, want %q", script.Source, want)
			}
			if script.Descriptor != tc.descriptor {
				t.Fatalf("Descriptor = %q, want %q", script.Descriptor, tc.descriptor)
			}
			if script.Commit != r.commits[tc.commit] {
				t.Fatalf("Commit = %s, want %s", script.Commit, r.commits[tc.commit])
			}
		})
	}
}

func TestGitSourceFileURL(t *testing.T) {
	r := newScriptRepo(t)
	script, err := GitSource{URL: "file://" + r.dir, Tag: "v1", Path: "./scripts/main.tl"}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(script.Source, "v1") {
		t.Fatalf("unexpected source %q", script.Source)
	}
}

func TestGitSourceErrors(t *testing.T) {
	r := newScriptRepo(t)
	ctx := context.Background()

	if _, err := (GitSource{Path: "main.tl"}).Fetch(ctx); err == nil || !strings.Contains(err.Error(), "URL required") {
		t.Fatalf("expected URL error, got %v", err)
	}
	if _, err := (GitSource{URL: r.dir}).Fetch(ctx); !errors.Is(err, ErrMissingScriptPath) {
		t.Fatalf("expected ErrMissingScriptPath, got %v", err)
	}
	if _, err := (GitSource{URL: r.dir, Path: "scripts/main.tl", Tag: "v1", Branch: "master"}).Fetch(ctx); err == nil || !strings.Contains(err.Error(), "only one of") {
		t.Fatalf("expected selector error, got %v", err)
	}
	if _, err := (GitSource{URL: r.dir, Path: "scripts/main.tl", Tag: "v9"}).Fetch(ctx); err == nil || !strings.Contains(err.Error(), "resolve revision refs/tags/v9") {
		t.Fatalf("expected resolve error, got %v", err)
	}
	if _, err := (GitSource{URL: r.dir, Path: "missing.tl"}).Fetch(ctx); !errors.Is(err, object.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "nowhere")
	if _, err := (GitSource{URL: missing, Path: "main.tl"}).Fetch(ctx); err == nil || !strings.Contains(err.Error(), "git clone") {
		t.Fatalf("expected clone error, got %v", err)
	}
}
