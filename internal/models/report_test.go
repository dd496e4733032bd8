package models

import (
	"testing"
	"time"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "abc-123", expected: "abc-123"},
		{name: "owner and repo", input: "pders01/git-context", expected: "pders01_git-context"},
		{name: "path", input: "/home/me/My Project", expected: "home_me_My_Project"},
		{name: "collapses separators", input: "a//..b", expected: "a_b"},
		{name: "empty", input: "  ", expected: "unnamed"},
		{name: "only symbols", input: "!!!", expected: "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeIdentifier(tt.input); got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestReportFileName(t *testing.T) {
	ts := time.Date(2025, 11, 14, 22, 52, 7, 0, time.UTC)

	tests := []struct {
		name     string
		kind     SourceKind
		id       string
		expected string
	}{
		{name: "video carries timestamp", kind: SourceVideo, id: "dQw4w9WgXcQ", expected: "video_dQw4w9WgXcQ_20251114T225207.md"},
		{name: "repo", kind: SourceRepo, id: "pders01/git-context", expected: "repo_pders01_git-context.md"},
		{name: "local", kind: SourceLocal, id: "/tmp/project", expected: "local_tmp_project.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReportFileName(tt.kind, tt.id, ts); got != tt.expected {
				t.Errorf("ReportFileName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTierRank(t *testing.T) {
	if !(TierSession.Rank() < TierProject.Rank() && TierProject.Rank() < TierGlobal.Rank()) {
		t.Error("expected session < project < global")
	}
	if Tier("bogus").Valid() {
		t.Error("unknown tier should not be valid")
	}
}
