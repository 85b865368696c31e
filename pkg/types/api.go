package types

// ChatMessage is one prior turn supplied as conversation context.
type ChatMessage struct {
	// Speaker role (user or assistant).
	// example: user
	Role string `json:"role" example:"user"`
	// Turn content.
	// example: What is a goroutine?
	Content string `json:"content" example:"What is a goroutine?"`
}

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	// Required user message.
	// example: Write a binary search in Go.
	Message string `json:"message" example:"Write a binary search in Go."`
	// Request category: chat, code or reasoning. Defaults to chat.
	// example: code
	MessageType string `json:"message_type,omitempty" example:"code"`
	// Optional prior turns, oldest first.
	Context []ChatMessage `json:"context,omitempty"`
	// Optional model identifier that bypasses routing.
	// example: llama3.1:8b
	ModelOverride string `json:"model_override,omitempty" example:"llama3.1:8b"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	// Generated text.
	Response string `json:"response"`
	// Model that produced the response.
	// example: deepseek-coder:33b
	ModelUsed string `json:"model_used" example:"deepseek-coder:33b"`
}

// HardwareResponse is returned by GET /hardware.
type HardwareResponse struct {
	// Tier label: Light, Medium, Heavy or NPU.
	// example: Heavy
	Tier string `json:"tier" example:"Heavy"`
	// Raw probe result.
	Details HardwareProfile `json:"details"`
}

// SearchFilters narrows a search request. Accepted but not yet applied.
type SearchFilters struct {
	MessageType string `json:"message_type,omitempty"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
}

// SearchRequest is the payload of POST /search.
type SearchRequest struct {
	// example: goroutines
	Query   string         `json:"query" example:"goroutines"`
	Limit   int            `json:"limit,omitempty"`
	Filters *SearchFilters `json:"filters,omitempty"`
}

// SearchResponse is returned by POST /search.
type SearchResponse struct {
	Results      []ConversationRecord `json:"results"`
	Query        string               `json:"query"`
	TotalResults int                  `json:"total_results"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Model names installed on the inference server.
	Models []string `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ProvisionStatus summarizes the outcome of pulling one model.
type ProvisionStatus struct {
	// example: gemma2:9b
	Model string `json:"model" example:"gemma2:9b"`
	// One of pending, success, warning, failed.
	// example: success
	State string `json:"state" example:"success"`
	// Detail for warning or failed outcomes.
	Detail string `json:"detail,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state: provisioning or ready.
	// example: ready
	State string `json:"state" example:"ready"`
	// Tier detected at startup provisioning.
	// example: Medium
	Tier string `json:"tier" example:"Medium"`
	// True when the inference server answered the health check.
	// example: true
	GatewayHealthy bool `json:"gateway_healthy" example:"true"`
	// Health check error, if any.
	GatewayError string `json:"gateway_error,omitempty"`
	// Per-model provisioning outcomes.
	Provisioning []ProvisionStatus `json:"provisioning"`
	// Number of stored conversation records; -1 when the store could not be read.
	// example: 42
	RecordCount int64 `json:"record_count" example:"42"`
	// In-flight generations per model.
	Inflight map[string]int `json:"inflight"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
