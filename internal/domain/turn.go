package domain

// Role identifies the author of a Turn.
type Role string

const (
	// RoleSystem marks the persona instruction sent ahead of the dialogue.
	RoleSystem Role = "system"
	// RoleUser marks a message written by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a generated reply.
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryKey identifies one conversation thread.
type HistoryKey struct {
	UserID    string
	CompanyID string
}

// String returns the composite key used by stores and log paths.
func (k HistoryKey) String() string {
	return k.UserID + ":" + k.CompanyID
}

// RecentTurns returns the last n turns of history, oldest first.
// The returned slice never aliases history.
func RecentTurns(history []Turn, n int) []Turn {
	if n <= 0 || len(history) == 0 {
		return []Turn{}
	}
	if n > len(history) {
		n = len(history)
	}
	out := make([]Turn, n)
	copy(out, history[len(history)-n:])
	return out
}
