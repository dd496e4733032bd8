package source

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/blueprint/internal/git"
	"github.com/pders01/blueprint/internal/models"
	"github.com/pders01/blueprint/internal/testutil"
)

func TestClassify(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		input      string
		kind       models.SourceKind
		key        string
		identifier string
		wantErr    bool
	}{
		{
			name:       "watch url",
			input:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			kind:       models.SourceVideo,
			key:        "youtube:dQw4w9WgXcQ",
			identifier: "dQw4w9WgXcQ",
		},
		{
			name:       "short url",
			input:      "https://youtu.be/dQw4w9WgXcQ?t=42",
			kind:       models.SourceVideo,
			key:        "youtube:dQw4w9WgXcQ",
			identifier: "dQw4w9WgXcQ",
		},
		{
			name:    "youtube without id",
			input:   "https://www.youtube.com/feed/library",
			wantErr: true,
		},
		{
			name:       "github repository",
			input:      "https://github.com/pders01/git-context",
			kind:       models.SourceRepo,
			key:        "github:pders01/git-context",
			identifier: "pders01/git-context",
		},
		{
			name:       "github with .git and subpath",
			input:      "https://github.com/acme/widget.git/",
			kind:       models.SourceRepo,
			key:        "github:acme/widget",
			identifier: "acme/widget",
		},
		{
			name:    "github owner only",
			input:   "https://github.com/acme",
			wantErr: true,
		},
		{
			name:    "unsupported host",
			input:   "https://example.com/video",
			wantErr: true,
		},
		{
			name:       "local directory",
			input:      dir,
			kind:       models.SourceLocal,
			key:        "local:" + dir,
			identifier: dir,
		},
		{
			name:    "missing directory",
			input:   filepath.Join(dir, "missing"),
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.input)

			if tt.wantErr {
				var aErr *AcquisitionError
				if !errors.As(err, &aErr) {
					t.Errorf("expected AcquisitionError, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.kind || got.Key != tt.key || got.Identifier != tt.identifier {
				t.Errorf("unexpected target: %+v", got)
			}
		})
	}
}

type fakeTranscriber struct {
	name string
	text string
	err  error
	hits int
}

func (f *fakeTranscriber) Name() string { return f.name }

func (f *fakeTranscriber) Transcript(ctx context.Context, target Target) (string, error) {
	f.hits++
	return f.text, f.err
}

func TestTranscriptChain(t *testing.T) {
	video := "https://youtu.be/dQw4w9WgXcQ"

	t.Run("first channel wins", func(t *testing.T) {
		first := &fakeTranscriber{name: "mcp", text: "from mcp"}
		second := &fakeTranscriber{name: "timedtext", text: "from captions"}
		a := NewAdapter(DefaultLimits(), nil, first, second)

		blob, err := a.Acquire(context.Background(), video)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if blob.Text != "from mcp" || second.hits != 0 {
			t.Errorf("expected first channel only, got %q (fallback hits %d)", blob.Text, second.hits)
		}
		if blob.SourceKind != models.SourceVideo || blob.SourceKey != "youtube:dQw4w9WgXcQ" {
			t.Errorf("unexpected blob metadata: %+v", blob)
		}
	})

	t.Run("falls back on error and empty text", func(t *testing.T) {
		first := &fakeTranscriber{name: "mcp", err: errors.New("server not running")}
		second := &fakeTranscriber{name: "empty", text: "   "}
		third := &fakeTranscriber{name: "timedtext", text: "from captions"}
		a := NewAdapter(DefaultLimits(), nil, first, second, third)

		blob, err := a.Acquire(context.Background(), video)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if blob.Text != "from captions" {
			t.Errorf("expected fallback text, got %q", blob.Text)
		}
	})

	t.Run("all channels fail", func(t *testing.T) {
		a := NewAdapter(DefaultLimits(), nil,
			&fakeTranscriber{name: "mcp", err: errors.New("boom")},
			&fakeTranscriber{name: "timedtext", err: errors.New("no captions")},
		)

		_, err := a.Acquire(context.Background(), video)

		var aErr *AcquisitionError
		if !errors.As(err, &aErr) {
			t.Fatalf("expected AcquisitionError, got %v", err)
		}
		for _, want := range []string{"mcp: boom", "timedtext: no captions"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %q", want, err.Error())
			}
		}
	})

	t.Run("no channels", func(t *testing.T) {
		a := NewAdapter(DefaultLimits(), nil)
		if _, err := a.Acquire(context.Background(), video); err == nil {
			t.Fatal("expected error without transcript channels")
		}
	})
}

func TestAcquireLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/demo\n")
	writeFile(t, dir, "main.go", "package main\n")

	a := NewAdapter(DefaultLimits(), nil)
	blob, err := a.Acquire(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if blob.SourceKind != models.SourceLocal {
		t.Errorf("expected local kind, got %s", blob.SourceKind)
	}
	if !strings.Contains(blob.Text, "--- File: go.mod ---") {
		t.Errorf("expected go.mod section, got %q", blob.Text)
	}
	if blob.SizeBytes != len(blob.Text) {
		t.Errorf("size %d does not match text length %d", blob.SizeBytes, len(blob.Text))
	}
	if blob.Revision != "" {
		t.Errorf("expected no revision outside a git work tree, got %q", blob.Revision)
	}
}

func TestAcquireLocalGitRepository(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	repo.CreateFile("main.go", "package main\n")
	repo.Commit("Add main")

	a := NewAdapter(DefaultLimits(), nil)
	blob, err := a.Acquire(context.Background(), repo.Path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, err := git.HeadCommit(repo.Path)
	if err != nil {
		t.Fatalf("failed to read head: %v", err)
	}
	if blob.Revision != want {
		t.Errorf("expected revision %s, got %q", want, blob.Revision)
	}
}

func TestAcquireRepositoryClone(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	repo.CreateFile("go.mod", "module example.com/widget\n")
	repo.CreateFile("internal/widget/widget.go", "package widget\n")
	repo.Commit("Add widget")

	a := NewAdapter(DefaultLimits(), nil)
	var requested string
	a.RepoURL = func(slug string) string {
		requested = slug
		return repo.URL()
	}

	blob, err := a.Acquire(context.Background(), "https://github.com/acme/widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requested != "acme/widget" {
		t.Errorf("expected slug acme/widget, got %q", requested)
	}
	if blob.SourceKey != "github:acme/widget" {
		t.Errorf("unexpected key %q", blob.SourceKey)
	}
	for _, want := range []string{"Project type: go", "--- File: README.md ---", "--- File: internal/widget/widget.go ---"} {
		if !strings.Contains(blob.Text, want) {
			t.Errorf("expected %q in content", want)
		}
	}

	want, err := git.HeadCommit(repo.Path)
	if err != nil {
		t.Fatalf("failed to read head: %v", err)
	}
	if blob.Revision != want {
		t.Errorf("expected the cloned revision %s, got %q", want, blob.Revision)
	}
}

func TestAcquireRepositoryCloneFailure(t *testing.T) {
	a := NewAdapter(DefaultLimits(), nil)
	a.RepoURL = func(slug string) string {
		return "file://" + filepath.Join(t.TempDir(), "nope")
	}

	_, err := a.Acquire(context.Background(), "https://github.com/acme/missing")

	var aErr *AcquisitionError
	if !errors.As(err, &aErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if aErr.Source != "github:acme/missing" {
		t.Errorf("unexpected source %q", aErr.Source)
	}
}

func TestAcquireBoundsTotalSize(t *testing.T) {
	a := NewAdapter(Limits{MaxTotalContentSize: 64}, nil,
		&fakeTranscriber{name: "mcp", text: strings.Repeat("é", 100)})

	blob, err := a.Acquire(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blob.Text) != 64 {
		t.Errorf("expected 64 bytes, got %d", len(blob.Text))
	}
}
