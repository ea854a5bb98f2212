package models

// APIResponse is the standard envelope for every endpoint: on success either
// Data or Message is set; on failure Success is false and Message explains.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse documents the failure envelope for swagger.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message"`
}

// MessageResponse documents a success envelope carrying only a message.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
}

// ImportResult summarizes a CSV bulk import.
type ImportResult struct {
	HeaderRow int `json:"header_row"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
}
