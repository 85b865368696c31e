package config

import "math"

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultAddr                 = "0.0.0.0:8080"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultMaxBodyBytes         = 1 << 20
	DefaultMaxPageSize          = 1000
	DefaultDatabasePath         = "data/assistant.db"
	DefaultOllamaURL            = "http://localhost:11434"
	DefaultOllamaTimeoutSeconds = 300
	DefaultHealthTimeoutSeconds = 5
	DefaultProbeTimeoutSeconds  = 3
	DefaultMaxConcurrentProbes  = 4
	DefaultMaxInflightPerModel  = 4
	DefaultMaxQueueDepth        = 32
	DefaultMaxWaitSeconds       = 30
)

// Request categories known to the router.
const (
	CategoryChat      = "chat"
	CategoryCode      = "code"
	CategoryReasoning = "reasoning"
)

func defaultRouting() map[string]RouteRow {
	return map[string]RouteRow{
		CategoryChat:      {Light: "phi3:3.8b", Medium: "gemma2:9b", Heavy: "llama3.1:8b", NPU: "gemma2:2b"},
		CategoryCode:      {Light: "phi3:3.8b", Medium: "deepseek-coder:6.7b", Heavy: "deepseek-coder:33b", NPU: "phi3:3.8b"},
		CategoryReasoning: {Light: "phi3:3.8b", Medium: "gemma2:9b", Heavy: "llama3.1:8b", NPU: "phi3:3.8b"},
	}
}

func defaultPersonas() map[string]string {
	return map[string]string{
		CategoryChat:      "You are a helpful AI assistant. Provide clear, concise, and accurate responses.",
		CategoryCode:      "You are an expert programming assistant. Provide clean, well-documented code with explanations. Consider best practices, error handling, and performance.",
		CategoryReasoning: "You are an AI assistant specialized in logical reasoning and problem-solving. Break down complex problems step by step and provide detailed analysis.",
	}
}

func defaultModels() ModelsConfig {
	return ModelsConfig{
		LightTier:  []string{"phi3:3.8b"},
		MediumTier: []string{"gemma2:9b", "deepseek-coder:6.7b"},
		HeavyTier:  []string{"llama3.1:8b", "gemma2:27b", "deepseek-coder:33b"},
		NPUTier:    []string{"phi3:3.8b", "gemma2:2b"},
	}
}

// Default returns a fully populated configuration.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields in place. Routing and persona
// entries are merged cell by cell so a file may override a single model.
func (c *Config) ApplyDefaults() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.LogFormat == "" {
		s.LogFormat = DefaultLogFormat
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.MaxPageSize <= 0 {
		s.MaxPageSize = DefaultMaxPageSize
	}
	if s.ChatTimeoutSeconds < 0 {
		s.ChatTimeoutSeconds = 0
	}
	if s.ChatRateLimit < 0 {
		s.ChatRateLimit = 0
	}
	if s.ChatRateLimit > 0 && s.ChatRateBurst <= 0 {
		s.ChatRateBurst = int(math.Ceil(s.ChatRateLimit))
	}
	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = []string{"*"}
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"*"}
	}

	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}

	o := &c.Ollama
	if o.BaseURL == "" {
		o.BaseURL = DefaultOllamaURL
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = DefaultOllamaTimeoutSeconds
	}
	if o.HealthTimeoutSeconds <= 0 {
		o.HealthTimeoutSeconds = DefaultHealthTimeoutSeconds
	}

	dm := defaultModels()
	if c.Models.LightTier == nil {
		c.Models.LightTier = dm.LightTier
	}
	if c.Models.MediumTier == nil {
		c.Models.MediumTier = dm.MediumTier
	}
	if c.Models.HeavyTier == nil {
		c.Models.HeavyTier = dm.HeavyTier
	}
	if c.Models.NPUTier == nil {
		c.Models.NPUTier = dm.NPUTier
	}

	if c.Routing == nil {
		c.Routing = make(map[string]RouteRow)
	}
	for cat, def := range defaultRouting() {
		row := c.Routing[cat]
		if row.Light == "" {
			row.Light = def.Light
		}
		if row.Medium == "" {
			row.Medium = def.Medium
		}
		if row.Heavy == "" {
			row.Heavy = def.Heavy
		}
		if row.NPU == "" {
			row.NPU = def.NPU
		}
		c.Routing[cat] = row
	}

	if c.Personas == nil {
		c.Personas = make(map[string]string)
	}
	for cat, p := range defaultPersonas() {
		if c.Personas[cat] == "" {
			c.Personas[cat] = p
		}
	}

	h := &c.Hardware
	if h.ProbeTimeoutSeconds <= 0 {
		h.ProbeTimeoutSeconds = DefaultProbeTimeoutSeconds
	}
	if h.MaxConcurrentProbes <= 0 {
		h.MaxConcurrentProbes = DefaultMaxConcurrentProbes
	}
	if h.CacheTTLSeconds < 0 {
		h.CacheTTLSeconds = 0
	}

	m := &c.Manager
	if m.MaxInflightPerModel <= 0 {
		m.MaxInflightPerModel = DefaultMaxInflightPerModel
	}
	if m.MaxQueueDepth <= 0 {
		m.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if m.MaxWaitSeconds <= 0 {
		m.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
}
