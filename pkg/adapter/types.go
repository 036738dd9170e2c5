package adapter

// Request is one generation call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps an adapter output and optional usage data.
type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    *Usage
}
