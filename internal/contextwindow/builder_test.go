package contextwindow

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pders01/blueprint/internal/models"
)

func entry(tier models.Tier, summary string, ts time.Time) models.MemoryEntry {
	return models.MemoryEntry{Tier: tier, Summary: summary, Timestamp: ts}
}

func TestBuildNoTruncation(t *testing.T) {
	got := Build(nil, "hello world", 100)
	if got != "hello world" {
		t.Errorf("expected primary text unchanged, got %q", got)
	}
}

func TestBuildZeroBudgetDisablesCap(t *testing.T) {
	primary := strings.Repeat("x", 500)
	got := Build(nil, primary, 0)
	if got != primary {
		t.Errorf("expected untouched primary text with budget 0")
	}
}

func TestBuildBudgetScenario(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	entries := []models.MemoryEntry{entry(models.TierSession, "m", ts)}
	block := MemoryBlock(entries)
	blockLen := utf8.RuneCountInString(block)

	primary := strings.Repeat("p", 100)
	got := Build(entries, primary, 50)

	if !strings.HasPrefix(got, block) {
		t.Fatalf("memory block must be kept intact, got %q", got)
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Errorf("expected truncation marker at the end, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 50+blockLen {
		t.Errorf("output length %d exceeds cap 50 + memory block %d", n, blockLen)
	}
}

func TestBuildPrimaryOnlyScenario(t *testing.T) {
	primary := strings.Repeat("a", 100)
	got := Build(nil, primary, 50)

	if utf8.RuneCountInString(got) > 50 {
		t.Errorf("expected at most 50 characters, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if !strings.HasPrefix(got, "aaaa") {
		t.Errorf("expected the head of the primary text to be kept, got %q", got)
	}
}

func TestBuildMemoryNeverTruncated(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)
	long := strings.Repeat("memory ", 40)
	entries := []models.MemoryEntry{entry(models.TierGlobal, long, ts)}
	block := MemoryBlock(entries)

	got := Build(entries, strings.Repeat("z", 1000), 30)

	if !strings.HasPrefix(got, block) {
		t.Fatal("memory block was altered")
	}
	if strings.Contains(got, "z") {
		t.Error("expected no primary text when memory alone exceeds the budget")
	}
	if n, max := utf8.RuneCountInString(got), 30+utf8.RuneCountInString(block); n > max {
		t.Errorf("output length %d exceeds %d", n, max)
	}
}

func TestBuildBudgetSmallerThanMarker(t *testing.T) {
	primary := strings.Repeat("p", 100)

	tests := []struct {
		name     string
		budget   int
		expected string
	}{
		{name: "one rune", budget: 1, expected: "."},
		{name: "five runes", budget: 5, expected: "...[t"},
		{name: "exactly the marker", budget: len(TruncationMarker), expected: TruncationMarker},
		{name: "one more than the marker", budget: len(TruncationMarker) + 1, expected: "p" + TruncationMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(nil, primary, tt.budget)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if n := utf8.RuneCountInString(got); n > tt.budget {
				t.Errorf("output length %d exceeds budget %d", n, tt.budget)
			}
		})
	}
}

func TestBuildMultibyteSafe(t *testing.T) {
	primary := strings.Repeat("é", 100)
	got := Build(nil, primary, 40)
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
	if utf8.RuneCountInString(got) != 40 {
		t.Errorf("expected 40 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestMemoryBlockOrdering(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.MemoryEntry{
		entry(models.TierGlobal, "global-old", base),
		entry(models.TierProject, "project-old", base),
		entry(models.TierSession, "session-old", base),
		entry(models.TierGlobal, "global-new", base.Add(2*time.Hour)),
		entry(models.TierSession, "session-new", base.Add(time.Hour)),
		entry(models.TierProject, "project-new", base.Add(3*time.Hour)),
	}

	block := MemoryBlock(entries)

	want := []string{"session-new", "session-old", "project-new", "project-old", "global-new", "global-old"}
	last := -1
	for _, w := range want {
		idx := strings.Index(block, w)
		if idx < 0 {
			t.Fatalf("missing %q in block:\n%s", w, block)
		}
		if idx < last {
			t.Errorf("%q is out of order in block:\n%s", w, block)
		}
		last = idx
	}
}

func TestMemoryBlockFormat(t *testing.T) {
	ts := time.Date(2025, 11, 14, 22, 52, 0, 0, time.UTC)
	block := MemoryBlock([]models.MemoryEntry{entry(models.TierProject, "analyzed\nrepo", ts)})

	expected := "Relevant memory:\n- [2025-11-14 22:52] analyzed repo\n\n"
	if block != expected {
		t.Errorf("unexpected block:\n%q\nwant:\n%q", block, expected)
	}
	if MemoryBlock(nil) != "" {
		t.Error("expected empty block for no entries")
	}
}

func TestBuildDeterministic(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.MemoryEntry{
		entry(models.TierSession, "b", ts),
		entry(models.TierSession, "a", ts),
	}
	first := Build(entries, strings.Repeat("q", 300), 120)
	for i := 0; i < 5; i++ {
		if got := Build(entries, strings.Repeat("q", 300), 120); got != first {
			t.Fatal("Build is not deterministic")
		}
	}
}
