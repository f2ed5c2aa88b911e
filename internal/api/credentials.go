package api

// Credentials carries the per-request identity: the auth token of a
// logged-in user (optional) and the Gemini API key the backend uses to
// call the model on the user's quota.
type Credentials struct {
	Token  string
	APIKey string
}

// CredentialSource supplies credentials at request time. It is injected
// into the clients and the controller so tests can swap in fixed values
// and so key/token changes take effect without rebuilding anything.
type CredentialSource interface {
	Credentials() Credentials
}

// Static is a fixed CredentialSource, mostly for tests.
type Static Credentials

func (s Static) Credentials() Credentials {
	return Credentials(s)
}
