package store

import "fmt"

// StoredEpisode is one row of the append-only episodes table — the
// persistent counterpart of memory.Episode (spec.md §4.B, §4.F).
type StoredEpisode struct {
	ID          string
	AgentID     string
	EventType   string
	Description string
	Outcome     string
	Importance  float64
	Payload     string
	TimestampMs int64
}

// AppendEpisode is idempotent on id (INSERT OR IGNORE), mirroring
// AppendAgentMessage.
func (s *ManifoldStore) AppendEpisode(e StoredEpisode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO episodes (id, agent_id, event_type, description, outcome, importance, payload, timestamp_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AgentID, e.EventType, e.Description, e.Outcome, e.Importance, e.Payload, e.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("store: append episode: %w", err)
	}
	return nil
}

// RecentEpisodes returns the last n episodes, newest first by rowid.
func (s *ManifoldStore) RecentEpisodes(n int) ([]StoredEpisode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		n = 50
	}
	rows, err := s.db.Query(
		`SELECT id, COALESCE(agent_id, ''), event_type, description, COALESCE(outcome, ''), importance, COALESCE(payload, ''), timestamp_ms
		 FROM episodes ORDER BY rowid DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("store: recent episodes: %w", err)
	}
	defer rows.Close()

	var out []StoredEpisode
	for rows.Next() {
		var e StoredEpisode
		if err := rows.Scan(&e.ID, &e.AgentID, &e.EventType, &e.Description, &e.Outcome, &e.Importance, &e.Payload, &e.TimestampMs); err != nil {
			return nil, fmt.Errorf("store: scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EpisodesByAgent returns every episode attributed to agentID.
func (s *ManifoldStore) EpisodesByAgent(agentID string) ([]StoredEpisode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, COALESCE(agent_id, ''), event_type, description, COALESCE(outcome, ''), importance, COALESCE(payload, ''), timestamp_ms
		 FROM episodes WHERE agent_id = ? ORDER BY rowid ASC`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: episodes by agent: %w", err)
	}
	defer rows.Close()

	var out []StoredEpisode
	for rows.Next() {
		var e StoredEpisode
		if err := rows.Scan(&e.ID, &e.AgentID, &e.EventType, &e.Description, &e.Outcome, &e.Importance, &e.Payload, &e.TimestampMs); err != nil {
			return nil, fmt.Errorf("store: scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
