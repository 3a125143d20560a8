package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/singy15/trivial-lang/pkg/driver"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func initGitRepo(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for rel, contents := range files {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(rel)), contents)
		if _, err := worktree.Add(rel); err != nil {
			t.Fatalf("Add %s: %v", rel, err)
		}
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Trivial CLI",
			Email: "trivial@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes, err := io.ReadAll(rOut)
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	errBytes, err := io.ReadAll(rErr)
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}
	_ = rOut.Close()
	_ = rErr.Close()
	return code, string(outBytes), string(errBytes)
}

func TestVersionAndHelp(t *testing.T) {
	code, out, _ := captureCLI(t, []string{"version"})
	if code != 0 || strings.TrimSpace(out) != cliToolVersion {
		t.Fatalf("version: code %d, out %q", code, out)
	}
	code, out, _ = captureCLI(t, []string{"--help"})
	if code != 0 || !strings.Contains(out, "trivial run") {
		t.Fatalf("help: code %d, out %q", code, out)
	}
	code, _, errOut := captureCLI(t, nil)
	if code != 2 || !strings.Contains(errOut, "usage:") {
		t.Fatalf("no args: code %d, stderr %q", code, errOut)
	}
	code, _, errOut = captureCLI(t, []string{"--bogus"})
	if code != 2 || !strings.Contains(errOut, "unknown flag --bogus") {
		t.Fatalf("unknown flag: code %d, stderr %q", code, errOut)
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.tl")
	writeFile(t, path, `
(let helloworld (fn (name) (print (+ "hello, " name))))
(helloworld "testuser")
`)
	for _, args := range [][]string{{"run", path}, {path}} {
		code, out, errOut := captureCLI(t, args)
		if code != 0 {
			t.Fatalf("%v: exit %d, stderr %q", args, code, errOut)
		}
		if out != "hello, testuser\n" {
			t.Fatalf("%v: unexpected stdout %q", args, out)
		}
	}
}

func TestRunReportsRuntimeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.tl")
	writeFile(t, path, `(print "before") (print x)`)
	code, out, errOut := captureCLI(t, []string{"run", path})
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if out != "before\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
	if strings.TrimSpace(errOut) != `runtime error: symbol "x" is not defined` {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestRunReportsSyntaxErrorPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tl")
	writeFile(t, path, "(print 1)\n(print #)")
	code, out, errOut := captureCLI(t, []string{"run", path})
	if code != 1 || out != "" {
		t.Fatalf("expected exit 1 without output, got %d %q", code, out)
	}
	if strings.TrimSpace(errOut) != "syntax error at character 17 (line 2, column 8)" {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestRunManifestInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), `
name: demo
main: src/main.tl
`)
	writeFile(t, filepath.Join(dir, "src", "main.tl"), `(print (* 6 7))`)
	chdir(t, dir)

	code, out, errOut := captureCLI(t, []string{"run"})
	if code != 0 || out != "42\n" {
		t.Fatalf("exit %d, stdout %q, stderr %q", code, out, errOut)
	}
}

func TestRunManifestDirectoryArgument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), `
name: capped
main: main.tl
limits:
  tokenizer_reads: 11
`)
	writeFile(t, filepath.Join(dir, "main.tl"), `(print 1)(print 2)`)

	code, out, errOut := captureCLI(t, []string{"run", dir})
	if code != 0 || out != "1\n" {
		t.Fatalf("manifest cap: exit %d, stdout %q, stderr %q", code, out, errOut)
	}
	code, out, _ = captureCLI(t, []string{"run", "--max-reads", "100", dir})
	if code != 0 || out != "1\n2\n" {
		t.Fatalf("flag override: exit %d, stdout %q", code, out)
	}
}

func TestRunWithoutManifestFails(t *testing.T) {
	chdir(t, t.TempDir())
	code, _, errOut := captureCLI(t, []string{"run"})
	if code != 1 || !strings.Contains(errOut, "no trivial.yml found") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestRunFromGit(t *testing.T) {
	dir := t.TempDir()
	commit := initGitRepo(t, dir, map[string]string{
		"scripts/main.tl": `(print "from git")`,
	})

	code, out, errOut := captureCLI(t, []string{"run", "--git", dir, "--rev", commit, "scripts/main.tl"})
	if code != 0 || out != "from git\n" {
		t.Fatalf("exit %d, stdout %q, stderr %q", code, out, errOut)
	}
	code, _, errOut = captureCLI(t, []string{"run", "--git", dir, "scripts/missing.tl"})
	if code != 1 || !strings.Contains(errOut, "failed to load program") {
		t.Fatalf("missing file: exit %d, stderr %q", code, errOut)
	}
}

func TestRunUsageErrors(t *testing.T) {
	cases := [][]string{
		{"run", "--tag", "v1", "main.tl"},
		{"run", "--git", "/tmp/repo"},
		{"run", "--max-reads", "-1", "main.tl"},
		{"run", "a.tl", "b.tl"},
		{"run", "--no-such-flag"},
		{"tokens"},
		{"ast", "a.tl", "b.tl"},
		{"repl", "extra"},
	}
	for _, args := range cases {
		if code, _, _ := captureCLI(t, args); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
}

func TestRunTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.tl")
	writeFile(t, path, `((fn (x) x) 1)`)
	code, _, errOut := captureCLI(t, []string{"run", "--trace", path})
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	for _, want := range []string{"level=DEBUG", "loaded program", "push frame", "call function"} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("expected %q in trace output:\n%s", want, errOut)
		}
	}
}

func TestTokensCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.tl")
	writeFile(t, path, `(print "hi" 'q -2)`)
	code, out, errOut := captureCLI(t, []string{"tokens", path})
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	want := "LP\t(\nSYM\tprint\nSTR\thi\nQTE\tq\nNUM\t-2\nRP\t)\n"
	if out != want {
		t.Fatalf("unexpected tokens:\n%s\nwant:\n%s", out, want)
	}

	code, out, errOut = captureCLI(t, []string{"tokens", "--max-reads", "3", path})
	if code != 0 || !strings.Contains(errOut, "read cap reached") {
		t.Fatalf("capped: exit %d, stderr %q", code, errOut)
	}
	if out != "LP\t(\n" {
		t.Fatalf("capped: unexpected tokens %q", out)
	}
}

func TestASTCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.tl")
	writeFile(t, path, `(print (+ 1 2))`)
	code, out, errOut := captureCLI(t, []string{"ast", path})
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "progn\n  print\n    +\n    1\n    2\n" {
		t.Fatalf("unexpected dump %q", out)
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore cwd %s: %v", prev, err)
		}
	})
}
