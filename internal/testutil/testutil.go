package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TempGitRepo creates a temporary git repository for testing
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates a new temporary git repository with one commit.
// The directory is removed when the test finishes.
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	repo := &TempGitRepo{Path: t.TempDir(), T: t}

	repo.git("init", "--quiet")
	// Configure git user (required for commits)
	repo.git("config", "user.name", "Test User")
	repo.git("config", "user.email", "test@example.com")

	repo.CreateFile("README.md", "# Test Repository\n")
	repo.Commit("Initial commit")

	return repo
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
}

// Commit stages and commits all changes
func (r *TempGitRepo) Commit(message string) {
	r.T.Helper()
	r.git("add", ".")
	r.git("commit", "--quiet", "-m", message)
}

// URL returns a file:// URL that git clone accepts
func (r *TempGitRepo) URL() string {
	return "file://" + filepath.ToSlash(r.Path)
}

func (r *TempGitRepo) git(args ...string) {
	r.T.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	if output, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
}
