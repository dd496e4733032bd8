// Package source turns user input into a bounded ContentBlob: a YouTube
// transcript, a shallow clone of a GitHub repository, or a local directory.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/pders01/blueprint/internal/git"
	"github.com/pders01/blueprint/internal/models"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// AcquisitionError reports that a source could not be turned into text
type AcquisitionError struct {
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Target is a classified input
type Target struct {
	Kind models.SourceKind
	// Key identifies the source across runs (youtube:<id>, github:<owner/repo>, local:<abs path>)
	Key string
	// Identifier is the human-facing name used for report files
	Identifier string
	// Location is the watch URL, the owner/repo slug or the directory path
	Location string
}

// Classify decides what kind of source input names
func Classify(input string) (Target, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Target{}, &AcquisitionError{Source: "input", Err: fmt.Errorf("empty input")}
	}

	if u, err := url.Parse(input); err == nil && u.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		switch {
		case host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
			m := videoIDPattern.FindStringSubmatch(input)
			if m == nil {
				return Target{}, &AcquisitionError{Source: input, Err: fmt.Errorf("invalid YouTube URL")}
			}
			return Target{
				Kind:       models.SourceVideo,
				Key:        "youtube:" + m[1],
				Identifier: m[1],
				Location:   input,
			}, nil

		case host == "github.com":
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
				return Target{}, &AcquisitionError{Source: input, Err: fmt.Errorf("expected https://github.com/<owner>/<repo>")}
			}
			slug := parts[0] + "/" + strings.TrimSuffix(parts[1], ".git")
			return Target{
				Kind:       models.SourceRepo,
				Key:        "github:" + slug,
				Identifier: slug,
				Location:   slug,
			}, nil
		}
		return Target{}, &AcquisitionError{Source: input, Err: fmt.Errorf("unsupported host %s", u.Host)}
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return Target{}, &AcquisitionError{Source: input, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Target{}, &AcquisitionError{Source: input, Err: fmt.Errorf("not a URL and not a readable directory: %w", err)}
	}
	if !info.IsDir() {
		return Target{}, &AcquisitionError{Source: input, Err: fmt.Errorf("%s is not a directory", abs)}
	}

	return Target{
		Kind:       models.SourceLocal,
		Key:        "local:" + abs,
		Identifier: abs,
		Location:   abs,
	}, nil
}

// Adapter fetches the content of classified targets
type Adapter struct {
	// Transcribers are tried in order until one returns text
	Transcribers []Transcriber
	Limits       Limits
	// RepoURL maps an owner/repo slug to a clonable URL
	RepoURL func(slug string) string
	Logger  *log.Logger
}

// NewAdapter creates an adapter with GitHub clone URLs
func NewAdapter(limits Limits, logger *log.Logger, transcribers ...Transcriber) *Adapter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Adapter{
		Transcribers: transcribers,
		Limits:       limits,
		RepoURL:      GitHubURL,
		Logger:       logger,
	}
}

// GitHubURL returns the https clone URL of slug
func GitHubURL(slug string) string {
	return "https://github.com/" + slug + ".git"
}

// Acquire classifies input and fetches it
func (a *Adapter) Acquire(ctx context.Context, input string) (models.ContentBlob, error) {
	target, err := Classify(input)
	if err != nil {
		return models.ContentBlob{}, err
	}
	return a.Fetch(ctx, target)
}

// Fetch produces the content blob of target. Repositories and local
// directories inside a git work tree also record the HEAD commit.
func (a *Adapter) Fetch(ctx context.Context, target Target) (models.ContentBlob, error) {
	var text, revision string
	var err error

	switch target.Kind {
	case models.SourceVideo:
		text, err = a.transcript(ctx, target)
	case models.SourceRepo:
		text, revision, err = a.repository(ctx, target)
	case models.SourceLocal:
		text, err = a.directory(target.Location)
		revision = a.revision(target.Location)
	default:
		err = fmt.Errorf("unknown source kind %q", target.Kind)
	}
	if err != nil {
		return models.ContentBlob{}, &AcquisitionError{Source: target.Key, Err: err}
	}

	blob := models.NewContentBlob(target.Kind, target.Key, truncate(text, a.Limits.MaxTotalContentSize))
	blob.Revision = revision
	return blob, nil
}

func (a *Adapter) repository(ctx context.Context, target Target) (string, string, error) {
	tmp, err := os.MkdirTemp("", "blueprint-clone-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create clone dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	dest := filepath.Join(tmp, "repo")
	a.Logger.Debug("cloning repository", "slug", target.Location, "dest", dest)
	if err := git.Clone(ctx, a.RepoURL(target.Location), dest); err != nil {
		return "", "", err
	}

	text, err := a.directory(dest)
	if err != nil {
		return "", "", err
	}
	return text, a.revision(dest), nil
}

func (a *Adapter) directory(dir string) (string, error) {
	projectType := DetectProjectType(dir)
	a.Logger.Debug("scanning directory", "dir", dir, "type", projectType)
	return GetRepoContentForAnalysis(dir, PriorityPaths(projectType), projectType, a.Limits)
}

// revision returns the HEAD commit of dir, or "" outside a git work tree
func (a *Adapter) revision(dir string) string {
	if !git.IsRepo(dir) {
		return ""
	}
	commit, err := git.HeadCommit(dir)
	if err != nil {
		a.Logger.Debug("no revision recorded", "dir", dir, "err", err)
		return ""
	}
	return commit
}

// truncate cuts s to at most max bytes on a rune boundary
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
