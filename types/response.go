package types

import "time"

// ApiResponse is the JSON envelope returned by every endpoint.
type ApiResponse struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failures that carry no data.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// LogEntry is a request log record queued for the async logger.
type LogEntry struct {
	Method       string
	URL          string
	RequestBody  string
	ResponseBody string
	StatusCode   int
	CreatedAt    time.Time
}
