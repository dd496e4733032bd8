package models

import "time"

// Tier is the scope of a memory entry
type Tier string

const (
	TierSession Tier = "session"
	TierProject Tier = "project"
	TierGlobal  Tier = "global"
)

// Tiers lists all tiers from narrowest to widest
var Tiers = []Tier{TierSession, TierProject, TierGlobal}

// Rank orders tiers by specificity: session < project < global.
// Unknown tiers sort last.
func (t Tier) Rank() int {
	switch t {
	case TierSession:
		return 0
	case TierProject:
		return 1
	case TierGlobal:
		return 2
	default:
		return 3
	}
}

// Valid reports whether t is a known tier
func (t Tier) Valid() bool {
	return t.Rank() < 3
}

// MemoryEntry is a short summary left behind by an earlier pipeline run
type MemoryEntry struct {
	ID         string     `json:"id"`
	Tier       Tier       `json:"tier"`
	SessionID  string     `json:"session_id,omitempty"`
	SourceKind SourceKind `json:"source_kind"`
	SourceKey  string     `json:"source_key"`
	Summary    string     `json:"summary"`
	Timestamp  time.Time  `json:"timestamp"`
}
