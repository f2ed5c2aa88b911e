package models

// User is the authenticated account profile.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// APIKeyRequest stores a Gemini API key against the account.
type APIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// APIKeyCheckResponse reports whether the account has a stored key.
type APIKeyCheckResponse struct {
	HasAPIKey bool `json:"hasApiKey"`
}

// APIKeyResponse returns the account's stored key.
type APIKeyResponse struct {
	APIKey string `json:"apiKey"`
}
