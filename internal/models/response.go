package models

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// NewValidationErrorResponse creates a validation error response
func NewValidationErrorResponse(errors map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Errors:  errors,
	}
}

// ExplainResponse is returned by the AI explain endpoint.
type ExplainResponse struct {
	QuestionID  string `json:"question_id"`
	Explanation string `json:"explanation"`
}

// AdminStats is the back-office analytics summary.
type AdminStats struct {
	Users        int64      `json:"users"`
	BannedUsers  int64      `json:"banned_users"`
	Questions    int64      `json:"questions"`
	Answers      int64      `json:"answers"`
	PendingFlags int64      `json:"pending_flags"`
	TopTags      []TagCount `json:"top_tags"`
}

type TagCount struct {
	Tag   string `json:"tag" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
