package metrics

// TokenUsage captures embedding token counts consumed while serving a request.
type TokenUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.TotalTokens == 0
}
