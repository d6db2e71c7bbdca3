package domain

// LLMConfig is the tenant's language-model configuration. The ingestion core
// only reads ModelName; the remaining fields belong to the chat layer.
type LLMConfig struct {
	ID           string
	TenantID     string
	Endpoint     string
	ModelName    string
	SystemPrompt string
	Temperature  float64
}
