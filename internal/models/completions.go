package models

// Cache tier constants reported alongside results served from cache
const (
	CacheTierExact    = "exact"
	CacheTierSemantic = "semantic"
)

// ChatMessage is a single message in a completion choice
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InferenceChoice is one completion alternative within a result
type InferenceChoice struct {
	Index        int64       `json:"index"`
	Message      ChatMessage `json:"message"`
	Text         string      `json:"text,omitzero"`
	FinishReason string      `json:"finish_reason,omitzero"`
}

// Usage reports token consumption for one inference call
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// InferenceResult is the provider-agnostic completion shape returned by every
// adapter, mirroring the OpenAI chat completion layout all of them can map to.
type InferenceResult struct {
	ID       string            `json:"id"`
	Object   string            `json:"object,omitzero"`
	Created  int64             `json:"created"`
	Model    string            `json:"model"`
	Provider Provider          `json:"provider,omitzero"`
	Choices  []InferenceChoice `json:"choices"`
	Usage    Usage             `json:"usage"`
	// CacheTier is set when the result was served from cache rather than a
	// live provider call.
	CacheTier string `json:"cache_tier,omitzero"`
}

// Content returns the first choice's message content, or its legacy text
// field when the message is empty.
func (r *InferenceResult) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	if r.Choices[0].Message.Content != "" {
		return r.Choices[0].Message.Content
	}
	return r.Choices[0].Text
}

// StreamDelta is the incremental content carried by one stream chunk
type StreamDelta struct {
	Content string `json:"content,omitzero"`
}

// StreamChoice is one choice within a stream chunk
type StreamChoice struct {
	Index        int64       `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitzero"`
}

// StreamChunk is one event of a streaming inference response. A chunk with a
// non-empty FinishReason on its first choice is the finish signal.
type StreamChunk struct {
	ID      string         `json:"id,omitzero"`
	Model   string         `json:"model,omitzero"`
	Choices []StreamChoice `json:"choices"`
}

// Done reports whether this chunk is the finish signal
func (c *StreamChunk) Done() bool {
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != ""
}
