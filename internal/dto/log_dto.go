package dto

// Log ids are content hashes, not UUIDs.

type LogListRequest struct {
	Level string `query:"level" validate:"omitempty,oneof=debug info warn error"`
	Page  int    `query:"page" validate:"gte=0"`
	Limit int    `query:"limit" validate:"gte=0,lte=200"`
}

type LogResponse struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
