package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GarvGoel08/DocOnGo/internal/api"
	"github.com/GarvGoel08/DocOnGo/internal/store"
	"github.com/GarvGoel08/DocOnGo/models"
)

type fakeAPI struct {
	mu sync.Mutex

	sendCalls   int
	resetCalls  int
	loadCalls   int
	getCalls    int
	genCalls    int
	listCalls   int
	deleteCalls int

	sendResp  *models.ChatResponse
	sendErr   error
	sendBlock chan struct{}

	loadResp *models.ConversationPayload
	loadErr  error

	getResp *models.Prescription
	getErr  error
	genResp *models.Prescription
	genErr  error

	resetErr  error
	deleteErr error
	chats     []models.ChatSummary
}

func (f *fakeAPI) SendMessage(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	f.mu.Lock()
	f.sendCalls++
	block := f.sendBlock
	resp, err := f.sendResp, f.sendErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return resp, err
}

func (f *fakeAPI) ResetSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return f.resetErr
}

func (f *fakeAPI) LoadConversation(ctx context.Context, sessionID string) (*models.ConversationPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	return f.loadResp, f.loadErr
}

func (f *fakeAPI) GetPrescription(ctx context.Context, sessionID string) (*models.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.getResp, f.getErr
}

func (f *fakeAPI) GeneratePrescription(ctx context.Context, sessionID string) (*models.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	return f.genResp, f.genErr
}

func (f *fakeAPI) ListChats(ctx context.Context, page, limit int) ([]models.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.chats, nil
}

func (f *fakeAPI) DeleteConversation(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeAPI) counts() (send, load, get, gen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls, f.loadCalls, f.getCalls, f.genCalls
}

var testCreds = api.Static{APIKey: "AIzaTestKey000000000000000000000", Token: "tok-1"}

func newTestController(fake *fakeAPI, opts ...Option) *Controller {
	opts = append([]Option{WithTypingDelay(time.Millisecond)}, opts...)
	return New(fake, store.New(), testCreds, opts...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func userMessageCount(snap Snapshot) int {
	n := 0
	for _, m := range snap.Messages {
		if m.Sender == models.SenderUser {
			n++
		}
	}
	return n
}

func TestNewControllerStartsFresh(t *testing.T) {
	c := newTestController(&fakeAPI{})
	snap := c.Snapshot()

	if !strings.HasPrefix(snap.SessionID, "sess-") {
		t.Fatalf("session id %q", snap.SessionID)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != GreetingText {
		t.Fatalf("expected single greeting, got %+v", snap.Messages)
	}
	if snap.Metadata.Stage != "GREETING" || snap.Progress != 17 {
		t.Fatalf("unexpected metadata %+v progress %d", snap.Metadata, snap.Progress)
	}
}

func TestSendMessageSuccess(t *testing.T) {
	fake := &fakeAPI{
		sendResp: &models.ChatResponse{
			Message: `{"message":"How long?"}`,
			Metadata: models.ResponseMetadata{
				Stage:            "SYMPTOM_COLLECTION",
				ConfidenceLevel:  0.9,
				DetectedSymptoms: []string{"headache"},
			},
		},
	}
	c := newTestController(fake)

	if err := c.SendMessage(context.Background(), "I have a headache"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	snap := c.Snapshot()
	last := snap.Messages[len(snap.Messages)-1]
	if last.Sender != models.SenderAI || last.Text != "How long?" {
		t.Fatalf("reply not normalized: %+v", last)
	}
	if snap.Metadata.Stage != "SYMPTOM_COLLECTION" {
		t.Fatalf("stage = %q", snap.Metadata.Stage)
	}
	if snap.Progress <= 10 {
		t.Fatalf("progress = %d, want > 10", snap.Progress)
	}
	if snap.Sending {
		t.Fatal("still sending after completion")
	}
	if !last.IsStageTransition {
		t.Fatal("stage change not flagged")
	}
}

func TestSendMessagePreconditions(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestController(fake)

	if err := c.SendMessage(context.Background(), "   "); !errors.Is(err, ErrBlankMessage) {
		t.Fatalf("blank input: %v", err)
	}

	noKey := New(fake, store.New(), api.Static{}, WithTypingDelay(time.Millisecond))
	if err := noKey.SendMessage(context.Background(), "hello"); !errors.Is(err, ErrAPIKeyRequired) {
		t.Fatalf("missing key: %v", err)
	}
	if !noKey.Snapshot().NeedsAPIKey {
		t.Fatal("NeedsAPIKey not flagged")
	}
	if send, _, _, _ := fake.counts(); send != 0 {
		t.Fatalf("network called despite failed preconditions: %d", send)
	}
}

func TestSecondSendWhileInFlightIsRejected(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeAPI{
		sendBlock: block,
		sendResp:  &models.ChatResponse{Message: "ok"},
	}
	c := newTestController(fake)

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(context.Background(), "first") }()

	waitFor(t, "first send to start", func() bool { return c.Snapshot().Sending })

	if err := c.SendMessage(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second send: %v", err)
	}
	if got := userMessageCount(c.Snapshot()); got != 1 {
		t.Fatalf("user message count = %d, want 1", got)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if send, _, _, _ := fake.counts(); send != 1 {
		t.Fatalf("send calls = %d, want 1", send)
	}
}

func TestTypingIndicatorAppearsAndIsRemoved(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeAPI{
		sendBlock: block,
		sendResp:  &models.ChatResponse{Message: "done"},
	}
	c := newTestController(fake)

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(context.Background(), "hello") }()

	waitFor(t, "typing indicator", func() bool {
		snap := c.Snapshot()
		return len(snap.Messages) > 0 && snap.Messages[len(snap.Messages)-1].IsTyping
	})

	close(block)
	<-done

	for _, m := range c.Snapshot().Messages {
		if m.IsTyping {
			t.Fatal("typing placeholder survived completion")
		}
	}
}

func TestSendFailureAppendsApology(t *testing.T) {
	fake := &fakeAPI{sendErr: errors.New("connection refused")}
	c := newTestController(fake)

	if err := c.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("transport failure must not surface as error: %v", err)
	}

	snap := c.Snapshot()
	last := snap.Messages[len(snap.Messages)-1]
	if !last.IsError || last.Sender != models.SenderAI {
		t.Fatalf("apology message missing: %+v", last)
	}
	if snap.ErrorText != "Failed to get response. Please try again." {
		t.Fatalf("error text = %q", snap.ErrorText)
	}
	if snap.NeedsAPIKey {
		t.Fatal("generic failure must not demand a key")
	}
}

func TestSendFailureAPIKeyClass(t *testing.T) {
	fake := &fakeAPI{sendErr: errors.New("Gemini API key is invalid")}
	c := newTestController(fake)

	_ = c.SendMessage(context.Background(), "hello")

	snap := c.Snapshot()
	if !snap.NeedsAPIKey {
		t.Fatal("api-key failure must request a key")
	}
	if !strings.HasPrefix(snap.ErrorText, "API key issue:") {
		t.Fatalf("error text = %q", snap.ErrorText)
	}
}

func TestStaleReplyLandsInOriginSession(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeAPI{
		sendBlock: block,
		sendResp: &models.ChatResponse{
			Message:  "late reply",
			Metadata: models.ResponseMetadata{Stage: "SYMPTOM_COLLECTION"},
		},
	}
	cache := store.New()
	c := New(fake, cache, testCreds, WithTypingDelay(time.Millisecond))
	origin := c.SessionID()

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(context.Background(), "hello") }()
	waitFor(t, "send to start", func() bool { return c.Snapshot().Sending })

	c.StartNew()
	fresh := c.SessionID()
	if fresh == origin {
		t.Fatal("StartNew kept the session id")
	}

	close(block)
	<-done

	entry, ok := cache.Get(origin)
	if !ok {
		t.Fatal("origin session not cached")
	}
	last := entry.Messages[len(entry.Messages)-1]
	if last.Text != "late reply" {
		t.Fatalf("origin cache missing the late reply: %+v", last)
	}
	snap := c.Snapshot()
	if snap.SessionID != fresh || len(snap.Messages) != 1 {
		t.Fatalf("late reply bled into the active session: %+v", snap.Messages)
	}
}

func TestSwitchToCachedSkipsTranscriptFetch(t *testing.T) {
	fake := &fakeAPI{}
	cache := store.New()
	cache.Put("sess-cached0", models.ConversationEntry{
		Messages: []models.Message{{Sender: models.SenderAI, Text: "welcome back"}},
		Metadata: models.ConversationMetadata{Stage: "MEDICAL_HISTORY", ConfidenceLevel: 0.8},
	})
	c := New(fake, cache, testCreds, WithTypingDelay(time.Millisecond))

	if err := c.SwitchTo(context.Background(), "sess-cached0"); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	_, load, get, _ := fake.counts()
	if load != 0 {
		t.Fatalf("cached switch fetched the transcript %d times", load)
	}
	if get != 1 {
		t.Fatalf("prescription lookups = %d, want 1", get)
	}
	snap := c.Snapshot()
	if snap.SessionID != "sess-cached0" || snap.Messages[0].Text != "welcome back" {
		t.Fatalf("cached entry not displayed: %+v", snap)
	}
}

func TestSwitchToUncachedFetchesOnce(t *testing.T) {
	fake := &fakeAPI{
		loadResp: &models.ConversationPayload{
			Messages: []models.TranscriptMessage{
				{Role: "user", Content: "I feel dizzy"},
				{Role: "assistant", Content: `{"message":"Since when?"}`},
			},
			CurrentStage:     "DETAILED_ASSESSMENT",
			DetectedSymptoms: []string{"dizziness"},
			ConfidenceLevel:  0.7,
		},
		getErr: errors.New("no prescription for session"),
	}
	c := newTestController(fake)

	if err := c.SwitchTo(context.Background(), "sess-remote00"); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	_, load, get, _ := fake.counts()
	if load != 1 || get != 1 {
		t.Fatalf("load=%d get=%d, want exactly one each", load, get)
	}

	snap := c.Snapshot()
	if snap.Messages[0].Text != "I feel dizzy" {
		t.Fatalf("user message re-normalized or lost: %+v", snap.Messages[0])
	}
	if snap.Messages[1].Text != "Since when?" {
		t.Fatalf("assistant message not normalized: %+v", snap.Messages[1])
	}
	if snap.Metadata.Stage != "DETAILED_ASSESSMENT" {
		t.Fatalf("stage = %q", snap.Metadata.Stage)
	}
	if snap.Prescription != nil {
		t.Fatal("missing prescription must be an empty state, not an error")
	}

	// Switching back later uses the cache.
	c.StartNew()
	if err := c.SwitchTo(context.Background(), "sess-remote00"); err != nil {
		t.Fatalf("second SwitchTo: %v", err)
	}
	if _, load, _, _ = fake.counts(); load != 1 {
		t.Fatalf("cached session re-fetched: load=%d", load)
	}
}

func TestSwitchToFetchFailureKeepsCurrentSession(t *testing.T) {
	fake := &fakeAPI{loadErr: errors.New("boom")}
	c := newTestController(fake)
	before := c.SessionID()

	if err := c.SwitchTo(context.Background(), "sess-gone"); err == nil {
		t.Fatal("expected error")
	}
	if c.SessionID() != before {
		t.Fatal("failed switch changed the active session")
	}
}

func TestGeneratePrescriptionTooShort(t *testing.T) {
	fake := &fakeAPI{}
	c := newTestController(fake)

	err := c.GeneratePrescription(context.Background())
	if !errors.Is(err, ErrConversationTooShort) {
		t.Fatalf("err = %v", err)
	}
	if _, _, _, gen := fake.counts(); gen != 0 {
		t.Fatalf("network called despite short conversation: %d", gen)
	}
	if c.Snapshot().PrescriptionError == "" {
		t.Fatal("precondition error not surfaced")
	}
}

func TestGeneratePrescriptionSuccess(t *testing.T) {
	fake := &fakeAPI{
		loadResp: &models.ConversationPayload{
			Messages: []models.TranscriptMessage{
				{Role: "user", Content: "headache"},
				{Role: "assistant", Content: "since when?"},
				{Role: "user", Content: "two days"},
				{Role: "assistant", Content: "any fever?"},
			},
			Stage: "RECOMMENDATIONS",
		},
		genResp: &models.Prescription{
			DescriptionOfIssue: "Tension headache",
			Medicines:          []models.Medicine{{Name: "Paracetamol", Dosage: "500mg", Duration: "3 days"}},
		},
	}
	c := newTestController(fake)
	if err := c.SwitchTo(context.Background(), "sess-full0000"); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	if err := c.GeneratePrescription(context.Background()); err != nil {
		t.Fatalf("GeneratePrescription: %v", err)
	}

	snap := c.Snapshot()
	if snap.Prescription == nil || snap.Prescription.DescriptionOfIssue != "Tension headache" {
		t.Fatalf("prescription not cached: %+v", snap.Prescription)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if !last.IsPrescriptionNote {
		t.Fatalf("notification message missing: %+v", last)
	}
}

func TestResetFailureLeavesStateUntouched(t *testing.T) {
	fake := &fakeAPI{resetErr: errors.New("backend down")}
	c := newTestController(fake)
	before := c.Snapshot()

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	after := c.Snapshot()
	if after.SessionID != before.SessionID || len(after.Messages) != len(before.Messages) {
		t.Fatal("failed reset mutated session state")
	}
	if after.ErrorText == "" {
		t.Fatal("reset failure not surfaced")
	}
}

func TestResetSuccessStartsFresh(t *testing.T) {
	fake := &fakeAPI{sendResp: &models.ChatResponse{Message: "noted"}}
	c := newTestController(fake)
	_ = c.SendMessage(context.Background(), "hello")
	before := c.SessionID()

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	snap := c.Snapshot()
	if snap.SessionID == before {
		t.Fatal("reset kept the session id")
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != GreetingText {
		t.Fatalf("reset did not reinitialize the transcript: %+v", snap.Messages)
	}
}

func TestDeleteActiveSessionStartsNew(t *testing.T) {
	fake := &fakeAPI{}
	cache := store.New()
	c := New(fake, cache, testCreds, WithTypingDelay(time.Millisecond))
	active := c.SessionID()
	cache.Put(active, models.ConversationEntry{Messages: []models.Message{{Sender: models.SenderUser, Text: "x"}}})

	if err := c.Delete(context.Background(), active); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cache.Contains(active) {
		t.Fatal("deleted session still cached")
	}
	if c.SessionID() == active {
		t.Fatal("active session survived deletion")
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	c := New(&fakeAPI{}, store.New(), api.Static{APIKey: "AIzaTestKey000000000000000000000"})
	if _, err := c.History(context.Background(), 1, 20); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("err = %v", err)
	}
	if err := c.Delete(context.Background(), "sess-x"); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("delete err = %v", err)
	}
}
