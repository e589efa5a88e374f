package llm

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model overrides the client's default model when set.
	Model string

	// MaxTokens limits the generated tokens. Zero means no limit.
	MaxTokens int

	// Temperature is omitted from the request when zero, leaving the server default.
	Temperature float32
}
