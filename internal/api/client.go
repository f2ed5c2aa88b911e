// Package api holds the HTTP collaborators of the client: the
// conversation backend and the auth backend. The rest of the codebase
// treats these as opaque capabilities; everything here is plain
// request/response over JSON with no retry policy - a failed call fails
// once and the caller surfaces it.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/GarvGoel08/DocOnGo/internal/observability"
	"github.com/GarvGoel08/DocOnGo/models"
)

const defaultTimeout = 30 * time.Second

// Client talks to the conversation backend.
type Client struct {
	http  *resty.Client
	creds CredentialSource
	log   *slog.Logger
}

// NewClient creates a conversation client rooted at baseURL, e.g.
// "http://localhost:5000/api". A zero timeout falls back to 30s.
func NewClient(baseURL string, timeout time.Duration, creds CredentialSource) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("Content-Type", "application/json")

	return &Client{
		http:  httpClient,
		creds: creds,
		log:   observability.WithFields("component", "doctor_api"),
	}
}

// sessionRequest is the wire shape for session-scoped POST calls.
type sessionRequest struct {
	SessionID string `json:"sessionId"`
	APIKey    string `json:"apiKey,omitempty"`
}

type chatsResponse struct {
	Chats []models.ChatSummary `json:"chats"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, Credentials) {
	creds := c.creds.Credentials()
	req := c.http.R().SetContext(ctx)
	if creds.Token != "" {
		req.SetAuthToken(creds.Token)
	}
	return req, creds
}

// SendMessage posts one patient message and returns the AI reply with
// its metadata. The reply text is raw; callers normalize it before
// display.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	req, creds := c.request(ctx)
	var out models.ChatResponse
	resp, err := req.
		SetBody(models.ChatRequest{Message: message, SessionID: sessionID, APIKey: creds.APIKey}).
		SetResult(&out).
		Post("/conversation/chat")
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	c.log.Debug("chat reply received", "session_id", sessionID, "stage", out.Metadata.CurrentStage)
	return &out, nil
}

// ResetSession asks the backend to discard the session's state.
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	req, creds := c.request(ctx)
	var out models.ResetResponse
	resp, err := req.
		SetBody(sessionRequest{SessionID: sessionID, APIKey: creds.APIKey}).
		SetResult(&out).
		Post("/conversation/reset")
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if resp.IsError() {
		return decodeAPIError(resp)
	}
	if !out.Success {
		return fmt.Errorf("reset session: backend declined")
	}
	return nil
}

// SessionStatus fetches the backend's lightweight view of one session.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
	req, _ := c.request(ctx)
	var out models.SessionStatus
	resp, err := req.SetResult(&out).Get("/conversation/status/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("session status: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return &out, nil
}

// LoadConversation fetches the full stored transcript and metadata for
// a session the client has no cache entry for.
func (c *Client) LoadConversation(ctx context.Context, sessionID string) (*models.ConversationPayload, error) {
	req, _ := c.request(ctx)
	var out models.ConversationPayload
	resp, err := req.SetResult(&out).Get("/conversation/load/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return &out, nil
}

// ListChats pages through the authenticated user's chat history.
func (c *Client) ListChats(ctx context.Context, page, limit int) ([]models.ChatSummary, error) {
	req, _ := c.request(ctx)
	var out chatsResponse
	resp, err := req.
		SetQueryParams(map[string]string{
			"page":  fmt.Sprintf("%d", page),
			"limit": fmt.Sprintf("%d", limit),
		}).
		SetResult(&out).
		Get("/conversation/chats")
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return out.Chats, nil
}

// DeleteConversation removes a conversation from the user's history.
func (c *Client) DeleteConversation(ctx context.Context, sessionID string) error {
	req, _ := c.request(ctx)
	resp, err := req.Delete("/conversation/" + sessionID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if resp.IsError() {
		return decodeAPIError(resp)
	}
	return nil
}

// GetPrescription looks up an existing prescription for the session.
// A 404 surfaces as an APIError; callers decide whether "none yet" is
// an error.
func (c *Client) GetPrescription(ctx context.Context, sessionID string) (*models.Prescription, error) {
	req, _ := c.request(ctx)
	var out models.PrescriptionResponse
	resp, err := req.SetResult(&out).Get("/conversation/prescription/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return out.Prescription, nil
}

// GeneratePrescription asks the backend to produce a prescription from
// the session's transcript.
func (c *Client) GeneratePrescription(ctx context.Context, sessionID string) (*models.Prescription, error) {
	req, creds := c.request(ctx)
	var out models.PrescriptionResponse
	resp, err := req.
		SetBody(sessionRequest{SessionID: sessionID, APIKey: creds.APIKey}).
		SetResult(&out).
		Post("/conversation/prescription")
	if err != nil {
		return nil, fmt.Errorf("generate prescription: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return out.Prescription, nil
}

// decodeAPIError pulls the error text out of a non-2xx body. The
// backend uses either an error or a message field; absent both, the
// HTTP status text stands in.
func decodeAPIError(resp *resty.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body(), &payload)
	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
