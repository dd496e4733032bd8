// Package contextwindow assembles the text sent to the model from retrieved
// memory and the primary content of a source.
package contextwindow

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pders01/blueprint/internal/models"
)

const (
	// TruncationMarker is appended when the primary text was cut
	TruncationMarker = "...[truncated]"

	memoryHeader    = "Relevant memory:\n"
	timestampFormat = "2006-01-02 15:04"
)

// Build merges memory entries and primary text into one prompt-ready string.
//
// The budget is a character cap standing in for a token count. When the
// combined text exceeds it, the primary text is cut from the tail and
// TruncationMarker is appended; the memory block is never cut, so the result
// is at most budget runes plus the memory block. A budget of
// zero or less disables the cap. Build has no hidden state: identical inputs
// give identical output.
func Build(entries []models.MemoryEntry, primary string, budget int) string {
	block := MemoryBlock(entries)
	if budget <= 0 {
		return block + primary
	}

	blockLen := utf8.RuneCountInString(block)
	if blockLen+utf8.RuneCountInString(primary) <= budget {
		return block + primary
	}

	markerLen := utf8.RuneCountInString(TruncationMarker)
	allowance := budget - blockLen
	if allowance < markerLen {
		// no room for any primary text; the marker itself is clipped to fit
		return block + truncateRunes(TruncationMarker, allowance)
	}

	return block + truncateRunes(primary, allowance-markerLen) + TruncationMarker
}

// MemoryBlock renders entries as bullet lines. Tiers are ordered session,
// project, global; entries within a tier are most recent first.
// Returns "" when there are no entries.
func MemoryBlock(entries []models.MemoryEntry) string {
	if len(entries) == 0 {
		return ""
	}

	ordered := make([]models.MemoryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() < b.Tier.Rank()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Summary < b.Summary
	})

	var b strings.Builder
	b.WriteString(memoryHeader)
	for _, e := range ordered {
		b.WriteString("- [")
		b.WriteString(e.Timestamp.UTC().Format(timestampFormat))
		b.WriteString("] ")
		b.WriteString(singleLine(e.Summary))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// singleLine keeps one bullet per entry even if a summary spans lines
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
