package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/singy15/trivial-lang/pkg/parser"
)

// ManifestName is the file looked up in a project directory.
const ManifestName = "trivial.yml"

// Manifest represents the parsed contents of trivial.yml.
type Manifest struct {
	Path   string
	Name   string
	Main   string
	Limits Limits
	Source *GitSource
}

// Limits caps the tokenizer and parser read loops. Zero means the default.
type Limits struct {
	TokenizerReads int
	ParserReads    int
}

// Tokenizer returns the tokenizer options for these limits.
func (l Limits) Tokenizer() parser.Options {
	return parser.Options{MaxReads: l.TokenizerReads}
}

// Parser returns the parser options for these limits.
func (l Limits) Parser() parser.Options {
	return parser.Options{MaxReads: l.ParserReads}
}

// Override returns l with every positive field of other applied.
func (l Limits) Override(other Limits) Limits {
	if other.TokenizerReads > 0 {
		l.TokenizerReads = other.TokenizerReads
	}
	if other.ParserReads > 0 {
		l.ParserReads = other.ParserReads
	}
	return l
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses trivial.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := raw.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// MainPath resolves the entry script relative to the manifest directory.
func (m *Manifest) MainPath() string {
	if filepath.IsAbs(m.Main) {
		return m.Main
	}
	return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(m.Main))
}

type manifestFile struct {
	Name   string      `yaml:"name"`
	Main   string      `yaml:"main"`
	Limits *limitsFile `yaml:"limits"`
	Source *sourceFile `yaml:"source"`
}

type limitsFile struct {
	TokenizerReads *int `yaml:"tokenizer_reads"`
	ParserReads    *int `yaml:"parser_reads"`
}

type sourceFile struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
}

func (f *manifestFile) validate() error {
	var errs ValidationError
	if strings.TrimSpace(f.Name) == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if strings.TrimSpace(f.Main) == "" {
		errs.Issues = append(errs.Issues, "main must be provided")
	}
	if f.Limits != nil {
		checks := []struct {
			key   string
			value *int
		}{
			{"tokenizer_reads", f.Limits.TokenizerReads},
			{"parser_reads", f.Limits.ParserReads},
		}
		for _, check := range checks {
			if check.value != nil && *check.value < 0 {
				errs.Issues = append(errs.Issues, fmt.Sprintf("limits.%s must not be negative (got %d)", check.key, *check.value))
			}
		}
	}
	if f.Source != nil {
		if strings.TrimSpace(f.Source.Git) == "" {
			errs.Issues = append(errs.Issues, "source.git must be provided")
		}
		selectors := 0
		for _, v := range []string{f.Source.Rev, f.Source.Tag, f.Source.Branch} {
			if strings.TrimSpace(v) != "" {
				selectors++
			}
		}
		if selectors > 1 {
			errs.Issues = append(errs.Issues, "source accepts only one of rev, tag, or branch")
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (f *manifestFile) toManifest(path string) *Manifest {
	m := &Manifest{
		Path: path,
		Name: strings.TrimSpace(f.Name),
		Main: strings.TrimSpace(f.Main),
	}
	if f.Limits != nil {
		if f.Limits.TokenizerReads != nil {
			m.Limits.TokenizerReads = *f.Limits.TokenizerReads
		}
		if f.Limits.ParserReads != nil {
			m.Limits.ParserReads = *f.Limits.ParserReads
		}
	}
	if f.Source != nil {
		m.Source = &GitSource{
			URL:    strings.TrimSpace(f.Source.Git),
			Rev:    strings.TrimSpace(f.Source.Rev),
			Tag:    strings.TrimSpace(f.Source.Tag),
			Branch: strings.TrimSpace(f.Source.Branch),
			Path:   m.Main,
		}
	}
	return m
}
