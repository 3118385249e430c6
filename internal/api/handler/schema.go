package handler

// --- Request types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=200"`
	Email    string `json:"email"    validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type visitRequest struct {
	Page string `json:"page" validate:"required,max=2048"`
}

type toolUsageRequest struct {
	ToolName string `json:"toolName" validate:"required,max=200"`
}

// --- Response types ---

// ErrorResponse is the envelope of every failed request, rendered by the
// central error handler.
type ErrorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type authResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type toolUsageRecord struct {
	ToolName string `json:"toolName"`
	Count    int64  `json:"count"`
}

type toolUsageResponse struct {
	Message   string          `json:"message"`
	ToolUsage toolUsageRecord `json:"toolUsage"`
}

type toolUsageStatResponse struct {
	ToolName string `json:"toolName"`
	Count    int64  `json:"count"`
}
