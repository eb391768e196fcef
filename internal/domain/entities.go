package domain

import "time"

type Document struct {
	ID      string
	Path    string
	ModTime time.Time
	Text    string
}

// Chunk is a contiguous window of a document. Start and Length count runes.
type Chunk struct {
	ID     string `json:"id"`
	DocID  string `json:"doc_id"`
	Index  int    `json:"index"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// End returns the rune offset just past the chunk.
func (c Chunk) End() int {
	return c.Start + c.Length
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec describes a function the completion model may call.
// Parameters is a JSON schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}
