package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportFileName derives the report file name for a processed source.
// Format: <kind>_<identifier>.md, video reports add _YYYYMMDDTHHMMSS
// because the same video is usually re-analyzed with new prompts.
func ReportFileName(kind SourceKind, identifier string, timestamp time.Time) string {
	name := fmt.Sprintf("%s_%s", kind, SanitizeIdentifier(identifier))
	if kind == SourceVideo {
		name += "_" + timestamp.Format("20060102T150405")
	}
	return name + ".md"
}

// SanitizeIdentifier reduces an identifier to [A-Za-z0-9-_] so it is safe as
// a file name component. Case is kept since video ids are case-sensitive.
func SanitizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	var result strings.Builder
	lastSep := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-':
			result.WriteRune(r)
			lastSep = false
		case !lastSep && result.Len() > 0:
			result.WriteRune('_')
			lastSep = true
		}
	}
	out := strings.TrimRight(result.String(), "_")
	if out == "" {
		return "unnamed"
	}
	return out
}
