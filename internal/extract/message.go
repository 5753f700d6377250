package extract

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a strategy-building conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
