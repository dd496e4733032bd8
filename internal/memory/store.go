// Package memory persists tiered analysis summaries and the developer
// profile in a local SQLite database.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/pool"
	_ "modernc.org/sqlite"

	"github.com/pders01/blueprint/internal/models"
)

// DefaultLimitPerTier caps how many entries each tier contributes.
const DefaultLimitPerTier = 5

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite-backed memory store. The session tier is scoped to
// the session id the store was opened with.
type Store struct {
	db        *sql.DB
	sessionID string
	limit     int

	mu      sync.Mutex
	entropy *rand.Rand
	now     func() time.Time
}

// Open opens or creates the database at dbPath.
func Open(dbPath, sessionID string, limit int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory db: %w", err)
	}

	if limit <= 0 {
		limit = DefaultLimitPerTier
	}

	s := &Store{
		db:        db,
		sessionID: sessionID,
		limit:     limit,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate memory db: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID returns the session the store writes session-tier entries for.
func (s *Store) SessionID() string {
	return s.sessionID
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		tier        TEXT NOT NULL,
		session_id  TEXT NOT NULL DEFAULT '',
		source_kind TEXT NOT NULL,
		source_key  TEXT NOT NULL,
		summary     TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_tier ON memories(tier, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_session ON memories(session_id);
	CREATE INDEX IF NOT EXISTS idx_memories_key ON memories(source_key);

	CREATE TABLE IF NOT EXISTS developer_patterns (
		developer_id TEXT NOT NULL,
		pattern      TEXT NOT NULL,
		count        INTEGER NOT NULL DEFAULT 0,
		last_seen    TEXT NOT NULL,
		PRIMARY KEY (developer_id, pattern)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// newID and the clock share the mutex since rand.Rand is not safe for
// concurrent use.
func (s *Store) stamp() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String(), now
}

// AddMemoryEntry stores a summary in the given tier.
func (s *Store) AddMemoryEntry(ctx context.Context, tier models.Tier, kind models.SourceKind, key, summary string) (models.MemoryEntry, error) {
	if !tier.Valid() {
		return models.MemoryEntry{}, fmt.Errorf("failed to add memory entry: unknown tier %q", tier)
	}

	id, now := s.stamp()
	entry := models.MemoryEntry{
		ID:         id,
		Tier:       tier,
		SourceKind: kind,
		SourceKey:  key,
		Summary:    summary,
		Timestamp:  now,
	}
	if tier == models.TierSession {
		entry.SessionID = s.sessionID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, tier, session_id, source_kind, source_key, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Tier), entry.SessionID, string(entry.SourceKind), entry.SourceKey,
		entry.Summary, now.Format(timeLayout))
	if err != nil {
		return models.MemoryEntry{}, fmt.Errorf("failed to add memory entry: %w", err)
	}

	return entry, nil
}

// GetMemoryEntries returns the newest entries of one tier. Session entries
// are limited to the current session.
func (s *Store) GetMemoryEntries(ctx context.Context, tier models.Tier) ([]models.MemoryEntry, error) {
	switch tier {
	case models.TierSession:
		return s.query(ctx, `tier = ? AND session_id = ?`, string(tier), s.sessionID)
	case models.TierProject, models.TierGlobal:
		return s.query(ctx, `tier = ?`, string(tier))
	default:
		return nil, fmt.Errorf("failed to get memory entries: unknown tier %q", tier)
	}
}

// GetRelevantMemory collects the entries that apply to sourceKey: the
// current session, earlier analyses of the same source, and global notes.
// The tiers are read concurrently and returned session first.
func (s *Store) GetRelevantMemory(ctx context.Context, sourceKey string) ([]models.MemoryEntry, error) {
	p := pool.NewWithResults[[]models.MemoryEntry]().WithErrors().WithContext(ctx)

	p.Go(func(ctx context.Context) ([]models.MemoryEntry, error) {
		return s.query(ctx, `tier = ? AND session_id = ?`, string(models.TierSession), s.sessionID)
	})
	p.Go(func(ctx context.Context) ([]models.MemoryEntry, error) {
		return s.query(ctx, `tier = ? AND source_key = ?`, string(models.TierProject), sourceKey)
	})
	p.Go(func(ctx context.Context) ([]models.MemoryEntry, error) {
		return s.query(ctx, `tier = ?`, string(models.TierGlobal))
	})

	groups, err := p.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve memory: %w", err)
	}

	var entries []models.MemoryEntry
	for _, g := range groups {
		entries = append(entries, g...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Tier.Rank() < entries[j].Tier.Rank()
	})

	return entries, nil
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]models.MemoryEntry, error) {
	q := `SELECT id, tier, session_id, source_kind, source_key, summary, created_at
		FROM memories WHERE ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, s.limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var entries []models.MemoryEntry
	for rows.Next() {
		var e models.MemoryEntry
		var tier, kind, createdAt string
		if err := rows.Scan(&e.ID, &tier, &e.SessionID, &kind, &e.SourceKey, &e.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		e.Tier = models.Tier(tier)
		e.SourceKind = models.SourceKind(kind)
		e.Timestamp, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
