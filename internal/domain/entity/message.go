package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole
	Content string
}

type ReviewResult struct {
	Summary  string   `json:"summary"`
	Severity string   `json:"severity"`
	Actions  []string `json:"actions"`
}
