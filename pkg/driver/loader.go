package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Program is a script ready to run, together with where it came from.
type Program struct {
	Name   string
	Source string
	// Origin is the file path, or url@descriptor:path for git sources.
	Origin string
	Limits Limits
	// Commit is set for programs read from git.
	Commit string
}

// ErrNoManifest is returned when a directory has no trivial.yml.
var ErrNoManifest = errors.New("driver: no " + ManifestName + " found")

// Load resolves target into a program. An empty target means the current
// directory. Directories are loaded through their manifest; anything else is
// read as a script file.
func Load(ctx context.Context, target string) (*Program, error) {
	if strings.TrimSpace(target) == "" {
		target = "."
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if info.IsDir() {
		return LoadProject(ctx, target)
	}
	return LoadFile(target)
}

// LoadFile reads a single script with default limits.
func LoadFile(file string) (*Program, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("driver: read %s: %w", file, err)
	}
	return &Program{
		Name:   strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
		Source: string(data),
		Origin: file,
	}, nil
}

// LoadProject reads dir/trivial.yml and loads its main script, from the
// working tree or from the manifest's git source.
func LoadProject(ctx context.Context, dir string) (*Program, error) {
	manifestPath := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(manifestPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}
		return nil, fmt.Errorf("driver: %w", err)
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	var program *Program
	if manifest.Source != nil {
		program, err = LoadGit(ctx, *manifest.Source)
	} else {
		program, err = LoadFile(manifest.MainPath())
	}
	if err != nil {
		return nil, err
	}
	program.Name = manifest.Name
	program.Limits = manifest.Limits
	return program, nil
}

// LoadGit fetches a script from a repository.
func LoadGit(ctx context.Context, src GitSource) (*Program, error) {
	script, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	scriptPath := filepath.ToSlash(src.Path)
	return &Program{
		Name:   strings.TrimSuffix(path.Base(scriptPath), path.Ext(scriptPath)),
		Source: script.Source,
		Origin: fmt.Sprintf("%s@%s:%s", src.URL, script.Descriptor, scriptPath),
		Commit: script.Commit.String(),
	}, nil
}
