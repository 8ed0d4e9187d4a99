package model

// APIResponse is the envelope used by the analysis endpoints.
type APIResponse struct {
	Success        bool        `json:"success"`
	Data           interface{} `json:"data,omitempty"`
	Error          string      `json:"error,omitempty"`
	ProcessingTime *int64      `json:"processingTime,omitempty"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	OpenAI    string `json:"openai"`
	Version   string `json:"version,omitempty"`
	CORS      string `json:"cors,omitempty"`
	History   string `json:"history,omitempty"`
}

// DebugInfo echoes request metadata for operators.
type DebugInfo struct {
	Method      string `json:"method"`
	HasAPIKey   bool   `json:"hasApiKey"`
	KeyPrefix   string `json:"keyPrefix"`
	ContentType string `json:"contentType"`
	HasBody     bool   `json:"hasBody"`
}

type DebugResponse struct {
	Success *bool     `json:"success,omitempty"`
	Message string    `json:"message"`
	Debug   DebugInfo `json:"debug"`
	Note    string    `json:"note,omitempty"`
}

type ConnectivityResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
	KeyExists *bool  `json:"keyExists,omitempty"`
	KeyPrefix string `json:"keyPrefix,omitempty"`
}

// HistoryQuery is the query string accepted by the history listing.
type HistoryQuery struct {
	Limit int `validate:"gte=1,lte=100"`
}
