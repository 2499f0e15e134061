package domain

import "time"

// CompletionRequest represents a unified backend request.
// It is immutable once issued.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// CompletionResponse represents a unified backend response.
type CompletionResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Content    string    `json:"content"`
	Usage      Usage     `json:"usage"`
	FinishTime time.Time `json:"finish_time"`
}

// Usage tracks token consumption for a single call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// QuestionMetadata is the forecasting question being researched.
type QuestionMetadata struct {
	Question           string `json:"question"`
	Description        string `json:"description"`
	ResolutionCriteria string `json:"resolution_criteria"`
	FinePrint          string `json:"fine_print,omitempty"`
}

// Candidate is a reference document considered for the output brief.
type Candidate struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// Extract is the consolidated supporting text pulled from one candidate.
type Extract struct {
	PageName    string `json:"page_name"`
	PageSummary string `json:"page_summary"`
}

// Brief is the background document handed to forecasting pipelines.
type Brief struct {
	Question QuestionMetadata `json:"question"`
	Drivers  []string         `json:"drivers"`
	Queries  []string         `json:"queries"`
	Extracts []Extract        `json:"extracts"`
}

// UsageRecord is one append-only audit entry. Never mutated after write.
type UsageRecord struct {
	Timestamp    time.Time
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	Remaining    int64
	BalanceKey   string
}
