// File: internal/domain/message.go
package domain

// Message roles. The assistant only ever sees these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a conversation. Ordering is append-only except
// for the one in-place edit operation, which sets Edited.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Edited  bool   `json:"edited,omitempty"`
}

// Messages is the ordered message sequence of one conversation. It is stored
// as a single JSON column on the conversation record.
type Messages []Message

// Window returns the trailing limit messages, or all of them when the
// sequence is shorter. A non-positive limit returns nil.
func (m Messages) Window(limit int) Messages {
	if limit <= 0 {
		return nil
	}
	if len(m) <= limit {
		return m
	}
	return m[len(m)-limit:]
}
