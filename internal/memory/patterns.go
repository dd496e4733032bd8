package memory

import (
	"context"
	"fmt"
	"strings"
)

// RecordPatterns bumps the usage count of each pattern for developer.
// Blank and duplicate patterns are ignored.
func (s *Store) RecordPatterns(ctx context.Context, developer string, patterns []string) error {
	if developer == "" || len(patterns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, now := s.stamp()
	seen := make(map[string]bool)
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true

		_, err := tx.ExecContext(ctx,
			`INSERT INTO developer_patterns (developer_id, pattern, count, last_seen)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT(developer_id, pattern) DO UPDATE SET
			   count = count + 1,
			   last_seen = excluded.last_seen`,
			developer, p, now.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to record pattern %q: %w", p, err)
		}
	}

	return tx.Commit()
}

// Patterns returns the developer's most frequent patterns.
func (s *Store) Patterns(ctx context.Context, developer string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = s.limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern FROM developer_patterns
		 WHERE developer_id = ?
		 ORDER BY count DESC, last_seen DESC, pattern ASC
		 LIMIT ?`, developer, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}
