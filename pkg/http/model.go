package http

// ErrorBody is the JSON envelope for every non-2xx response.
type ErrorBody struct {
	Status  int               `json:"status" example:"400"`
	Error   string            `json:"error" example:"Bad Request"`
	Code    string            `json:"code,omitempty" example:"ERR_BAD_REQUEST"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"symbol"`
	Message string                 `json:"message,omitempty" example:"symbol is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// HealthResponse is served by the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
