// Package controller orchestrates one active consultation: sending
// messages, merging AI replies, typing-indicator timing, session
// switching and resets, and prescription generation. It owns the
// mirror of the active session's state; everything not currently open
// lives in the conversation store.
package controller

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/GarvGoel08/DocOnGo/internal/api"
	"github.com/GarvGoel08/DocOnGo/internal/normalize"
	"github.com/GarvGoel08/DocOnGo/internal/observability"
	"github.com/GarvGoel08/DocOnGo/internal/session"
	"github.com/GarvGoel08/DocOnGo/internal/stage"
	"github.com/GarvGoel08/DocOnGo/internal/store"
	"github.com/GarvGoel08/DocOnGo/models"
)

// Canned transcript texts, shared with the web client.
const (
	GreetingText = "Hello! I am Dr. AI. How can I help you today?"

	connectionFailureText = "I'm having trouble connecting to my knowledge base. Please try again in a moment."

	prescriptionNoteText = "I've generated your prescription! You can find it in the prescription section below. " +
		"Please remember that this is for informational purposes only and you should consult with a " +
		"healthcare provider before taking any medicines."

	prescriptionFailureText = "I'm sorry, I couldn't generate a prescription at this time. Please ensure you've " +
		"provided enough information about your symptoms and medical history, then try again."
)

const (
	// minPrescriptionMessages is the minimum transcript length before
	// a prescription may be requested.
	minPrescriptionMessages = 4

	defaultTypingDelay   = 500 * time.Millisecond
	defaultConfidence    = 0.95
	replyConfidenceFloor = 0.5
	loadConfidenceFloor  = 0.8
)

// API is the remote conversation capability the controller depends on.
// *api.Client satisfies it; tests inject fakes.
type API interface {
	SendMessage(ctx context.Context, sessionID, message string) (*models.ChatResponse, error)
	ResetSession(ctx context.Context, sessionID string) error
	LoadConversation(ctx context.Context, sessionID string) (*models.ConversationPayload, error)
	GetPrescription(ctx context.Context, sessionID string) (*models.Prescription, error)
	GeneratePrescription(ctx context.Context, sessionID string) (*models.Prescription, error)
	ListChats(ctx context.Context, page, limit int) ([]models.ChatSummary, error)
	DeleteConversation(ctx context.Context, sessionID string) error
}

// Snapshot is the observable state of the active consultation. Slices
// are copies; observers may keep them.
type Snapshot struct {
	SessionID         string
	Messages          []models.Message
	Metadata          models.ConversationMetadata
	Progress          int
	Prescription      *models.Prescription
	Sending           bool
	Generating        bool
	ErrorText         string
	PrescriptionError string
	NeedsAPIKey       bool
}

// Controller runs the consultation state machine. All mutation happens
// under one mutex; response handlers close over the session id captured
// at request time, never re-reading the active session, so a reply that
// lands after a switch updates its originating cache entry instead of
// bleeding into another session's view.
type Controller struct {
	mu    sync.Mutex
	api   API
	store *store.Store
	creds api.CredentialSource
	log   *slog.Logger

	typingDelay time.Duration
	newID       func() string
	observer    func(Snapshot)

	sessionID    string
	messages     []models.Message
	metadata     models.ConversationMetadata
	prescription *models.Prescription
	sending      bool
	generating   bool
	typingTimer  *time.Timer
	errText      string
	prescErr     string
	needsKey     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithTypingDelay overrides how long a reply may be pending before the
// typing placeholder appears.
func WithTypingDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.typingDelay = d
		}
	}
}

// WithIDGenerator overrides session id minting, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithObserver registers the UI callback invoked on every state
// change. The observer runs with the controller locked and must not
// call back into it.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) { c.observer = fn }
}

// New builds a controller and opens a fresh session with the canned
// greeting.
func New(remote API, cache *store.Store, creds api.CredentialSource, opts ...Option) *Controller {
	c := &Controller{
		api:         remote,
		store:       cache,
		creds:       creds,
		log:         observability.WithFields("component", "controller"),
		typingDelay: defaultTypingDelay,
		newID:       session.NewID,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mu.Lock()
	c.startNewLocked()
	c.mu.Unlock()
	return c
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SessionID returns the active session id.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ClearError resets surfaced error state after the UI has shown it.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errText = ""
	c.prescErr = ""
	c.needsKey = false
}

// SendMessage sends one patient message and merges the AI reply. It
// rejects blank input, a send already in flight, and a missing API key
// with sentinel errors; transport failures are converted into
// transcript and banner state and do not return an error.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if trimmed == "" {
		c.mu.Unlock()
		return ErrBlankMessage
	}
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.creds.Credentials().APIKey == "" {
		c.needsKey = true
		c.notifyLocked()
		c.mu.Unlock()
		return ErrAPIKeyRequired
	}

	sessionID := c.sessionID
	prevStage := c.metadata.Stage
	c.sending = true
	c.errText = ""
	c.messages = append(c.messages, models.Message{
		ID:     session.NewMessageID(),
		Sender: models.SenderUser,
		Text:   trimmed,
	})
	// Baseline for the final transcript; the typing placeholder added
	// later is display-only and never part of it.
	base := append([]models.Message(nil), c.messages...)
	c.typingTimer = time.AfterFunc(c.typingDelay, func() { c.showTyping(sessionID) })
	c.notifyLocked()
	c.mu.Unlock()

	resp, err := c.api.SendMessage(ctx, sessionID, trimmed)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTypingLocked()
	c.sending = false

	if err != nil {
		c.log.Error("send failed", "session_id", sessionID, "error", err)
		if api.IsAPIKeyError(err) {
			c.errText = "API key issue: " + err.Error()
			c.needsKey = true
		} else {
			c.errText = "Failed to get response. Please try again."
		}
		final := append(base, models.Message{
			ID:      session.NewMessageID(),
			Sender:  models.SenderAI,
			Text:    connectionFailureText,
			IsError: true,
		})
		c.commitLocked(sessionID, final, c.metadataForSession(sessionID, prevStage))
		return nil
	}

	text, _ = normalize.Normalize(resp.Message)
	newStage := firstNonEmpty(resp.Metadata.CurrentStage, resp.Metadata.Stage, prevStage, stage.First())
	meta := models.ConversationMetadata{
		Stage:             newStage,
		ConfidenceLevel:   nonZero(resp.Metadata.ConfidenceLevel, replyConfidenceFloor),
		DetectedSymptoms:  resp.Metadata.DetectedSymptoms,
		SuggestedFollowup: resp.Metadata.SuggestedFollowup,
	}
	final := append(base, models.Message{
		ID:                session.NewMessageID(),
		Sender:            models.SenderAI,
		Text:              text,
		IsStageTransition: !strings.EqualFold(newStage, prevStage),
	})
	c.commitLocked(sessionID, final, meta)
	c.log.Info("reply merged", "session_id", sessionID, "stage", newStage)
	return nil
}

// Reset discards the current session on the backend and starts a fresh
// one locally. A failure leaves the old session untouched.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.creds.Credentials().APIKey == "" {
		c.needsKey = true
		c.notifyLocked()
		c.mu.Unlock()
		return ErrAPIKeyRequired
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	if err := c.api.ResetSession(ctx, sessionID); err != nil {
		c.log.Error("reset failed", "session_id", sessionID, "error", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		if api.IsAPIKeyError(err) {
			c.errText = "API key issue: " + err.Error()
			c.needsKey = true
		} else {
			c.errText = "Failed to reset the conversation. Please try again."
		}
		c.notifyLocked()
		return nil
	}

	c.mu.Lock()
	c.startNewLocked()
	c.mu.Unlock()
	return nil
}

// StartNew opens a fresh session with the canned greeting. The
// previous session stays in history and in the cache.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startNewLocked()
}

// SwitchTo makes sessionID the active session. Cached sessions load
// without any network call; uncached ones are fetched, normalized and
// cached. Either way the displayed state is replaced wholesale - the
// transcript of one session never mixes into another. The transcript
// fetch failing leaves the current session active and returns the
// error; the prescription lookup tolerates failure as "none yet".
func (c *Controller) SwitchTo(ctx context.Context, sessionID string) error {
	if cached, ok := c.store.Get(sessionID); ok {
		c.mu.Lock()
		c.sessionID = sessionID
		c.messages = cached.Messages
		c.metadata = cached.Metadata
		c.prescription = nil
		c.errText = ""
		c.prescErr = ""
		c.notifyLocked()
		c.mu.Unlock()
		c.loadPrescription(ctx, sessionID)
		return nil
	}

	conv, err := c.api.LoadConversation(ctx, sessionID)
	if err != nil {
		c.log.Error("load conversation failed", "session_id", sessionID, "error", err)
		return err
	}

	messages := make([]models.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if m.Role == "user" {
			messages = append(messages, models.Message{
				ID:     session.NewMessageID(),
				Sender: models.SenderUser,
				Text:   m.Content,
			})
			continue
		}
		// Stored assistant turns may still carry their JSON wrapping.
		messages = append(messages, models.Message{
			ID:     session.NewMessageID(),
			Sender: models.SenderAI,
			Text:   normalize.Clean(m.Content),
		})
	}
	entry := models.ConversationEntry{
		Messages: messages,
		Metadata: models.ConversationMetadata{
			Stage:            firstNonEmpty(conv.CurrentStage, conv.Stage, stage.First()),
			ConfidenceLevel:  nonZero(conv.ConfidenceLevel, loadConfidenceFloor),
			DetectedSymptoms: conv.DetectedSymptoms,
		},
	}
	c.store.Put(sessionID, entry)

	c.mu.Lock()
	c.sessionID = sessionID
	c.messages = append([]models.Message(nil), entry.Messages...)
	c.metadata = entry.Metadata
	c.prescription = nil
	c.errText = ""
	c.prescErr = ""
	c.notifyLocked()
	c.mu.Unlock()

	c.loadPrescription(ctx, sessionID)
	return nil
}

// GeneratePrescription asks the backend for a prescription once the
// conversation is substantial enough.
func (c *Controller) GeneratePrescription(ctx context.Context) error {
	c.mu.Lock()
	if c.creds.Credentials().APIKey == "" {
		c.needsKey = true
		c.notifyLocked()
		c.mu.Unlock()
		return ErrAPIKeyRequired
	}
	if c.generating {
		c.mu.Unlock()
		return ErrBusy
	}
	if len(c.messages) < minPrescriptionMessages {
		c.prescErr = "Please have a more detailed conversation before generating a prescription"
		c.notifyLocked()
		c.mu.Unlock()
		return ErrConversationTooShort
	}
	sessionID := c.sessionID
	c.generating = true
	c.prescErr = ""
	c.notifyLocked()
	c.mu.Unlock()

	prescription, err := c.api.GeneratePrescription(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generating = false
	if c.sessionID != sessionID {
		// User navigated away mid-generation; nothing to show.
		c.log.Info("prescription result for inactive session dropped", "session_id", sessionID)
		return nil
	}

	if err != nil {
		c.log.Error("prescription generation failed", "session_id", sessionID, "error", err)
		if api.IsAPIKeyError(err) {
			c.prescErr = "API key issue: " + err.Error()
			c.needsKey = true
		} else {
			c.prescErr = err.Error()
		}
		c.messages = append(c.messages, models.Message{
			ID:      session.NewMessageID(),
			Sender:  models.SenderAI,
			Text:    prescriptionFailureText,
			IsError: true,
		})
		c.notifyLocked()
		return nil
	}

	c.prescription = prescription
	c.messages = append(c.messages, models.Message{
		ID:                 session.NewMessageID(),
		Sender:             models.SenderAI,
		Text:               prescriptionNoteText,
		IsPrescriptionNote: true,
	})
	c.notifyLocked()
	return nil
}

// History lists the logged-in user's conversations. The summaries come
// straight from the backend; nothing is derived locally.
func (c *Controller) History(ctx context.Context, page, limit int) ([]models.ChatSummary, error) {
	if c.creds.Credentials().Token == "" {
		return nil, ErrAuthRequired
	}
	return c.api.ListChats(ctx, page, limit)
}

// Delete removes a conversation from history and from the cache. If it
// was the active session, a fresh one is started.
func (c *Controller) Delete(ctx context.Context, sessionID string) error {
	if c.creds.Credentials().Token == "" {
		return ErrAuthRequired
	}
	if err := c.api.DeleteConversation(ctx, sessionID); err != nil {
		return err
	}
	c.store.Remove(sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == sessionID {
		c.startNewLocked()
	}
	return nil
}

func (c *Controller) startNewLocked() {
	c.sessionID = c.newID()
	c.messages = []models.Message{{
		ID:     session.NewMessageID(),
		Sender: models.SenderAI,
		Text:   GreetingText,
	}}
	c.metadata = models.ConversationMetadata{
		Stage:            stage.First(),
		ConfidenceLevel:  defaultConfidence,
		DetectedSymptoms: []string{},
	}
	c.prescription = nil
	c.errText = ""
	c.prescErr = ""
	c.notifyLocked()
}

// commitLocked writes the finished transcript into the cache and, when
// the originating session is still the active one, into the displayed
// state. sessionID was captured when the request started.
func (c *Controller) commitLocked(sessionID string, messages []models.Message, meta models.ConversationMetadata) {
	c.store.Put(sessionID, models.ConversationEntry{Messages: messages, Metadata: meta})
	if c.sessionID != sessionID {
		c.log.Info("reply for inactive session cached", "session_id", sessionID)
		return
	}
	c.messages = messages
	c.metadata = meta
	c.notifyLocked()
}

// metadataForSession returns the metadata to keep on a failed send:
// whatever is displayed if the session is still active, else the cached
// entry's metadata, else defaults with the stage known at send time.
func (c *Controller) metadataForSession(sessionID, prevStage string) models.ConversationMetadata {
	if c.sessionID == sessionID {
		return c.metadata
	}
	if entry, ok := c.store.Get(sessionID); ok {
		return entry.Metadata
	}
	return models.ConversationMetadata{
		Stage:            firstNonEmpty(prevStage, stage.First()),
		ConfidenceLevel:  defaultConfidence,
		DetectedSymptoms: []string{},
	}
}

func (c *Controller) showTyping(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID || !c.sending {
		return
	}
	c.messages = append(c.messages, models.Message{Sender: models.SenderAI, IsTyping: true})
	c.notifyLocked()
}

// stopTypingLocked removes the typing placeholder before any success
// or failure mutation so it can never dangle.
func (c *Controller) stopTypingLocked() {
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	kept := c.messages[:0]
	for _, m := range c.messages {
		if !m.IsTyping {
			kept = append(kept, m)
		}
	}
	c.messages = kept
}

// loadPrescription fetches an existing prescription for the session,
// treating any failure as "none yet".
func (c *Controller) loadPrescription(ctx context.Context, sessionID string) {
	prescription, err := c.api.GetPrescription(ctx, sessionID)
	if err != nil {
		c.log.Debug("no prescription for session", "session_id", sessionID, "error", err)
		prescription = nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != sessionID {
		return
	}
	c.prescription = prescription
	c.notifyLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:         c.sessionID,
		Messages:          append([]models.Message(nil), c.messages...),
		Metadata:          c.metadata,
		Progress:          stage.Progress(c.metadata.Stage),
		Prescription:      c.prescription,
		Sending:           c.sending,
		Generating:        c.generating,
		ErrorText:         c.errText,
		PrescriptionError: c.prescErr,
		NeedsAPIKey:       c.needsKey,
	}
}

func (c *Controller) notifyLocked() {
	if c.observer != nil {
		c.observer(c.snapshotLocked())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
