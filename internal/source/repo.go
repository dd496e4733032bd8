package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Limits bound how much of a repository is read
type Limits struct {
	MaxTotalContentSize  int
	MaxSourceFilesToScan int
	MaxSourceFileSize    int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxTotalContentSize:  100000,
		MaxSourceFilesToScan: 50,
		MaxSourceFileSize:    20000,
	}
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
}

var skipExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".svg": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".jar": true, ".exe": true,
	".so": true, ".dylib": true, ".dll": true, ".woff": true, ".woff2": true, ".ttf": true,
	".lock": true, ".sum": true,
}

// marker file -> project type, checked in order
var projectMarkers = []struct {
	file string
	kind string
}{
	{"go.mod", "go"},
	{"Cargo.toml", "rust"},
	{"package.json", "node"},
	{"pyproject.toml", "python"},
	{"requirements.txt", "python"},
	{"setup.py", "python"},
	{"pom.xml", "java"},
	{"build.gradle", "java"},
	{"Gemfile", "ruby"},
}

// DetectProjectType guesses the main language of the project at root.
// It returns "" when no marker file is present.
func DetectProjectType(root string) string {
	for _, m := range projectMarkers {
		if _, err := os.Stat(filepath.Join(root, m.file)); err == nil {
			return m.kind
		}
	}
	return ""
}

// PriorityPaths lists the files read first for a project type
func PriorityPaths(projectType string) []string {
	paths := []string{"README.md", "README", "readme.md"}

	switch projectType {
	case "go":
		paths = append(paths, "go.mod", "main.go", "cmd/main.go")
	case "rust":
		paths = append(paths, "Cargo.toml", "src/main.rs", "src/lib.rs")
	case "node":
		paths = append(paths, "package.json", "index.js", "src/index.js", "src/index.ts", "tsconfig.json")
	case "python":
		paths = append(paths, "pyproject.toml", "requirements.txt", "setup.py", "main.py", "app.py")
	case "java":
		paths = append(paths, "pom.xml", "build.gradle")
	case "ruby":
		paths = append(paths, "Gemfile")
	}

	return paths
}

// GetRepoContentForAnalysis concatenates the readable text files under root.
// Priority paths come first, then the rest in lexical order. Each file is
// headed by "--- File: <path> ---" and cut at MaxSourceFileSize; reading
// stops at MaxSourceFilesToScan files or MaxTotalContentSize bytes.
func GetRepoContentForAnalysis(root string, priorityPaths []string, projectType string, limits Limits) (string, error) {
	var b strings.Builder
	if projectType != "" {
		fmt.Fprintf(&b, "Project type: %s\n\n", projectType)
	}
	header := b.Len()

	seen := make(map[string]bool)
	files := 0

	add := func(rel string) bool {
		if seen[rel] {
			return true
		}
		seen[rel] = true

		content, ok := readTextFile(filepath.Join(root, rel), limits.MaxSourceFileSize)
		if !ok {
			return true
		}

		section := fmt.Sprintf("--- File: %s ---\n%s\n\n", filepath.ToSlash(rel), content)
		if limits.MaxTotalContentSize > 0 && b.Len()+len(section) > limits.MaxTotalContentSize {
			remaining := limits.MaxTotalContentSize - b.Len()
			if remaining > 0 && files == 0 {
				b.WriteString(truncate(section, remaining))
				files++
			}
			return false
		}

		b.WriteString(section)
		files++
		return limits.MaxSourceFilesToScan <= 0 || files < limits.MaxSourceFilesToScan
	}

	for _, p := range priorityPaths {
		info, err := os.Stat(filepath.Join(root, p))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !add(filepath.Clean(p)) {
			return finish(&b, header)
		}
	}

	errStop := errors.New("stop")
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || skipExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !add(rel) {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return "", fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return finish(&b, header)
}

func finish(b *strings.Builder, header int) (string, error) {
	if b.Len() == header {
		return "", errors.New("no readable source files found")
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// readTextFile reads at most max bytes and rejects binary content
func readTextFile(path string, max int) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	probe := data
	if len(probe) > 512 {
		probe = probe[:512]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return "", false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", false
	}

	if max > 0 && len(data) > max {
		return truncate(string(data), max) + "\n...[file truncated]", true
	}
	return string(data), true
}
