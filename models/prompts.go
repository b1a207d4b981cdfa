package models

// Prompts holds the editable instructions sent to the completion service.
type Prompts struct {
	AssistantPrompt string `json:"assistant_prompt"`
	SummaryPrompt   string `json:"summary_prompt"`
}
