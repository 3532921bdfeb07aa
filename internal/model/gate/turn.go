package gate

import "time"

// Role tags a transcript turn. The system turn appears exactly once, first.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation transcript. ImageURL carries an
// optional data URL for multimodal turns (the guest photo on the opener).
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
