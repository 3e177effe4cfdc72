package models

// Turn is one exchange entry in a user's conversation history.
type Turn struct {
	// Role is "user" or "assistant"
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserState is the per-user conversation memory. History is bounded: only the
// most recent MaxHistoryTurns entries survive an append, oldest dropped first.
type UserState struct {
	UserID  string `json:"user_id"`
	History []Turn `json:"history"`
}

// AppendTurn appends a turn and trims the history to maxTurns entries.
func (s *UserState) AppendTurn(role, content string, maxTurns int) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if maxTurns > 0 && len(s.History) > maxTurns {
		s.History = s.History[len(s.History)-maxTurns:]
	}
}
