package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pders01/blueprint/internal/testutil"
)

func TestClone(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	repo.CreateFile("go.mod", "module example.com/demo\n")
	repo.Commit("Add go.mod")

	dest := filepath.Join(t.TempDir(), "clone")
	if err := Clone(context.Background(), repo.URL(), dest); err != nil {
		t.Fatalf("clone failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "go.mod")); err != nil {
		t.Errorf("expected go.mod in clone: %v", err)
	}
	if !IsRepo(dest) {
		t.Error("expected clone to be a git repository")
	}

	want, err := HeadCommit(repo.Path)
	if err != nil {
		t.Fatalf("failed to read source head: %v", err)
	}
	got, err := HeadCommit(dest)
	if err != nil {
		t.Fatalf("failed to read clone head: %v", err)
	}
	if got != want {
		t.Errorf("expected head %s, got %s", want, got)
	}
}

func TestCloneFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "clone")
	err := Clone(context.Background(), "file://"+filepath.Join(t.TempDir(), "missing"), dest)
	if err == nil {
		t.Fatal("expected clone of missing repository to fail")
	}
}

func TestIsRepo(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)

	tests := []struct {
		name     string
		dir      string
		expected bool
	}{
		{name: "git repository", dir: repo.Path, expected: true},
		{name: "plain directory", dir: t.TempDir(), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRepo(tt.dir); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
