package types

// ChatRequest is the payload accepted by POST /api/chat.
type ChatRequest struct {
	// Message to send to the model. Surrounding whitespace is trimmed.
	// example: What is machine learning?
	Message string `json:"message" example:"What is machine learning?"`
	// Stream the reply as it is generated. Defaults to true when omitted.
	// example: true
	Stream *bool `json:"stream,omitempty" example:"true"`
}

// Streaming reports whether the reply should be relayed as a live stream.
func (r ChatRequest) Streaming() bool { return r.Stream == nil || *r.Stream }

// ChatResponse is the buffered (stream=false) reply of POST /api/chat.
type ChatResponse struct {
	// Complete model reply.
	// example: Hello! How can I help you today?
	Response string `json:"response" example:"Hello! How can I help you today?"`
	// Model that produced the reply.
	// example: tinyllama
	Model string `json:"model" example:"tinyllama"`
	// Always false for buffered replies.
	// example: false
	Stream bool `json:"stream" example:"false"`
}

// HealthResponse is returned by GET /api/health when the backend is reachable.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// example: connected
	Ollama string `json:"ollama" example:"connected"`
	// Configured model name.
	// example: tinyllama
	Model string `json:"model" example:"tinyllama"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	// Models installed on the backend.
	// example: ["tinyllama:latest","mistral:7b"]
	Models []string `json:"models" example:"tinyllama:latest,mistral:7b"`
	// Model used for chat requests.
	// example: tinyllama
	CurrentModel string `json:"current_model" example:"tinyllama"`
	// example: true
	Available bool `json:"available" example:"true"`
}

// InfoResponse is returned by GET /api/info.
type InfoResponse struct {
	// example: Ollama Chat Application
	AppName string `json:"app_name" example:"Ollama Chat Application"`
	// example: 1.1.0
	Version string `json:"version" example:"1.1.0"`
	// example: tinyllama
	Model string `json:"model" example:"tinyllama"`
	// example: A modern web-based chat interface for local LLM inference with Ollama
	Description string `json:"description" example:"A modern web-based chat interface for local LLM inference with Ollama"`
	// example: http://localhost:11434/api
	OllamaURL string `json:"ollama_url" example:"http://localhost:11434/api"`
}

// APIRootResponse lists the public endpoints (GET /api/).
type APIRootResponse struct {
	// example: Ollama Chat API
	Message   string            `json:"message" example:"Ollama Chat API"`
	Version   string            `json:"version" example:"1.1.0"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse is the payload of every non-2xx API response.
type ErrorResponse struct {
	// Human readable reason. Never carries raw backend output.
	// example: Message cannot be empty
	Detail string `json:"detail" example:"Message cannot be empty"`
}
