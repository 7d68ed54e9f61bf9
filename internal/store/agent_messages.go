package store

import "fmt"

// AgentMessage is one row of the append-only agent_messages table.
type AgentMessage struct {
	ID          string
	From        string
	To          string
	Type        string
	Payload     string
	TimestampMs int64
	SessionID   string
}

// AppendAgentMessage is idempotent on id: a duplicate id is silently
// skipped via INSERT OR IGNORE (spec.md §4.B).
func (s *ManifoldStore) AppendAgentMessage(m AgentMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO agent_messages (id, from_agent, to_agent, type, payload, timestamp_ms, session_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.From, m.To, m.Type, m.Payload, m.TimestampMs, m.SessionID,
	)
	if err != nil {
		return fmt.Errorf("store: append agent message: %w", err)
	}
	return nil
}

// MessagesForSession returns every message tagged with sessionID, oldest
// first by rowid (consumers may observe out-of-order timestamps but never
// lose a message with a distinct id, per spec.md §5).
func (s *ManifoldStore) MessagesForSession(sessionID string) ([]AgentMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, from_agent, COALESCE(to_agent, ''), type, payload, timestamp_ms, COALESCE(session_id, '')
		 FROM agent_messages WHERE session_id = ? ORDER BY rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: messages for session: %w", err)
	}
	defer rows.Close()

	var out []AgentMessage
	for rows.Next() {
		var m AgentMessage
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Type, &m.Payload, &m.TimestampMs, &m.SessionID); err != nil {
			return nil, fmt.Errorf("store: scan agent message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
