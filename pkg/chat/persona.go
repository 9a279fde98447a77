package chat

// Persona is the fixed scenario descriptor produced by the one-shot persona
// generator and consumed unchanged by every generation request.
type Persona struct {
	A string `json:"A"` // the furious witness (judge side)
	B string `json:"B"` // the one who screwed up (partner side)
	C string `json:"C"` // what exactly was screwed up
}

// APIConfig is the session's model selection, passed through to every
// generation request. The engine treats it as an opaque blob.
type APIConfig struct {
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	ModelName   string  `json:"model_name"`
	TempPersona float64 `json:"temp_persona"`
	TempJudge   float64 `json:"temp_judge"`
	TempPartner float64 `json:"temp_partner"`
}

// GenerateRequest is the request body for both generation endpoints.
type GenerateRequest struct {
	Config  APIConfig `json:"config"`
	Persona Persona   `json:"persona"`

	// History is the full settled transcript, oldest first. It never includes
	// the placeholder turn currently being generated.
	History []Message `json:"history"`

	// ExtraPrompt is the free-text injection string for the role being
	// generated.
	ExtraPrompt string `json:"extra_prompt"`
}
