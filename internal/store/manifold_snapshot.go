package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"forge/internal/forgeerr"
)

// ManifoldSnapshot is one row of the append-only manifold_snapshots table.
type ManifoldSnapshot struct {
	Version       int64
	IntegrityHash string
	Payload       string
	SavedAtMs     int64
	AgentID       string
}

func computeSnapshotHash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SaveManifold appends a new snapshot row; it never updates an existing
// row (spec.md §4.B). Version is assigned by SQLite's AUTOINCREMENT, which
// is strictly monotonic across the table's lifetime.
func (s *ManifoldStore) SaveManifold(payload string, savedAtMs int64, agentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := computeSnapshotHash(payload)
	res, err := s.db.Exec(
		`INSERT INTO manifold_snapshots (integrity_hash, payload, saved_at_ms, agent_id) VALUES (?, ?, ?, ?)`,
		hash, payload, savedAtMs, agentID,
	)
	if err != nil {
		return 0, fmt.Errorf("store: save manifold: %w", err)
	}
	return res.LastInsertId()
}

// LoadLatestManifold reads the row with the greatest version, recomputes
// the integrity hash over its payload, and fails if the stored hash
// doesn't match (spec.md §4.B, P9 monotonicity).
func (s *ManifoldStore) LoadLatestManifold() (ManifoldSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap ManifoldSnapshot
	row := s.db.QueryRow(
		`SELECT version, integrity_hash, payload, saved_at_ms, COALESCE(agent_id, '')
		 FROM manifold_snapshots ORDER BY version DESC LIMIT 1`,
	)
	if err := row.Scan(&snap.Version, &snap.IntegrityHash, &snap.Payload, &snap.SavedAtMs, &snap.AgentID); err != nil {
		return ManifoldSnapshot{}, fmt.Errorf("store: load latest manifold: %w", err)
	}

	recomputed := computeSnapshotHash(snap.Payload)
	if recomputed != snap.IntegrityHash {
		return ManifoldSnapshot{}, forgeerr.New(forgeerr.IntegrityFailure, "load_latest_manifold",
			fmt.Errorf("stored hash %s does not match recomputed hash %s for version %d", snap.IntegrityHash, recomputed, snap.Version))
	}
	return snap, nil
}

// ListManifoldVersions returns up to limit versions in strictly decreasing
// order, the canonical history ordering (spec.md §4.B).
func (s *ManifoldStore) ListManifoldVersions(limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT version FROM manifold_snapshots ORDER BY version DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list manifold versions: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
