package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/GarvGoel08/DocOnGo/internal/controller"
	"github.com/GarvGoel08/DocOnGo/internal/session"
	"github.com/GarvGoel08/DocOnGo/models"
)

// InteractiveSession runs the chat REPL. It prints transcript messages
// as they accumulate and dispatches slash commands.
type InteractiveSession struct {
	app         *App
	reader      *bufio.Reader
	printed     int
	shownID     string
	typingShown atomic.Bool
}

func NewInteractiveSession(app *App) *InteractiveSession {
	return &InteractiveSession{
		app:    app,
		reader: bufio.NewReader(os.Stdin),
	}
}

// OnUpdate is the controller observer. It runs on the controller's
// goroutines, so it only prints; the REPL goroutine owns everything
// else.
func (s *InteractiveSession) OnUpdate(snap controller.Snapshot) {
	if !snap.Sending || len(snap.Messages) == 0 {
		return
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.IsTyping && s.typingShown.CompareAndSwap(false, true) {
		fmt.Println(RenderMessage(last))
	}
}

// Start begins the interactive session.
func (s *InteractiveSession) Start(ctx context.Context) error {
	DisplayWelcomeBanner()

	if err := s.ensureAPIKey(ctx); err != nil {
		return err
	}

	s.resumeLastSession(ctx)
	s.printNewMessages()

	err := s.runMainLoop(ctx)
	if saveErr := s.app.Manager.SaveLastSession(s.app.Ctrl.SessionID()); saveErr != nil {
		fmt.Println(dimStyle.Render("Could not remember this consultation: " + saveErr.Error()))
	}
	return err
}

// resumeLastSession reopens the consultation from the previous run,
// mirroring the web client's session restore. A failed load just keeps
// the fresh session.
func (s *InteractiveSession) resumeLastSession(ctx context.Context) {
	resumeID := session.ResolveActive(s.app.Manager.Get().LastSessionID, s.app.Ctrl.SessionID)
	if resumeID == s.app.Ctrl.SessionID() {
		return
	}
	if err := s.app.Ctrl.SwitchTo(ctx, resumeID); err != nil {
		fmt.Println(dimStyle.Render("Starting fresh; the previous consultation could not be reopened."))
		return
	}
	fmt.Println(dimStyle.Render("Resuming your previous consultation. Use /new to start over."))
}

// ensureAPIKey pulls a server-side key for logged-in users, then
// prompts if none is available anywhere.
func (s *InteractiveSession) ensureAPIKey(ctx context.Context) error {
	if err := s.app.Keeper.Refresh(ctx); err != nil {
		fmt.Println(errorStyle.Render("Could not check your saved API key: " + err.Error()))
	}
	if !s.app.Keeper.Missing() {
		return nil
	}

	fmt.Println(dimStyle.Render("A Gemini API key is needed to talk to Dr. AI."))
	key, err := PromptForAPIKey()
	if err != nil {
		return err
	}
	if err := s.app.Keeper.Save(ctx, key); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	fmt.Println(dimStyle.Render("API key saved."))
	fmt.Println()
	return nil
}

func (s *InteractiveSession) runMainLoop(ctx context.Context) error {
	for {
		fmt.Print(patientStyle.Render("You> "))
		line, err := s.reader.ReadString('\n')
		if err != nil {
			// EOF means the terminal went away; leave quietly.
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if done := s.runCommand(ctx, line); done {
				return nil
			}
			continue
		}

		s.sendMessage(ctx, line)
	}
}

func (s *InteractiveSession) runCommand(ctx context.Context, line string) (exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		fmt.Println(dimStyle.Render("Take care! Remember to consult a real doctor for serious concerns."))
		return true
	case "/help":
		s.showHelp()
	case "/new":
		s.app.Ctrl.StartNew()
		s.resetView()
		s.printNewMessages()
	case "/reset":
		s.handleReset(ctx)
	case "/history":
		s.handleHistory(ctx)
	case "/prescription":
		s.handlePrescription(ctx)
	case "/export":
		s.handleExport()
	case "/key":
		s.handleKeyChange(ctx)
	case "/status":
		snap := s.app.Ctrl.Snapshot()
		fmt.Println(dimStyle.Render("Session " + snap.SessionID))
		fmt.Println(RenderStatusLine(snap.Metadata, snap.Progress))
	default:
		fmt.Println(errorStyle.Render("Unknown command " + fields[0] + ". Type /help for the list."))
	}
	return false
}

func (s *InteractiveSession) showHelp() {
	fmt.Println(dimStyle.Render(strings.TrimSpace(`
/new           start a fresh consultation
/reset         reset the current consultation on the server
/history       browse and reopen past consultations (login required)
/prescription  generate or show the prescription for this consultation
/export        save the prescription as a markdown file
/key           change the Gemini API key
/status        show the consultation stage and detected symptoms
/exit          leave`)))
}

func (s *InteractiveSession) sendMessage(ctx context.Context, text string) {
	s.typingShown.Store(false)

	err := s.app.Ctrl.SendMessage(ctx, text)
	switch {
	case errors.Is(err, controller.ErrAPIKeyRequired):
		if keyErr := s.ensureAPIKey(ctx); keyErr == nil {
			err = s.app.Ctrl.SendMessage(ctx, text)
		}
	case errors.Is(err, controller.ErrBusy):
		fmt.Println(errorStyle.Render("Still waiting for the previous reply."))
		return
	}
	if err != nil && !errors.Is(err, controller.ErrAPIKeyRequired) {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}

	s.printNewMessages()

	snap := s.app.Ctrl.Snapshot()
	if snap.NeedsAPIKey {
		fmt.Println(errorStyle.Render(snap.ErrorText))
		fmt.Println(dimStyle.Render("Use /key to set a new Gemini API key."))
		s.app.Ctrl.ClearError()
		return
	}
	if snap.ErrorText != "" {
		fmt.Println(errorStyle.Render(snap.ErrorText))
		s.app.Ctrl.ClearError()
		return
	}
	fmt.Println(RenderStatusLine(snap.Metadata, snap.Progress))
	fmt.Println()
}

func (s *InteractiveSession) handleReset(ctx context.Context) {
	if err := s.app.Ctrl.Reset(ctx); err != nil {
		if errors.Is(err, controller.ErrAPIKeyRequired) {
			fmt.Println(errorStyle.Render("Set an API key first with /key."))
			return
		}
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	snap := s.app.Ctrl.Snapshot()
	if snap.ErrorText != "" {
		fmt.Println(errorStyle.Render(snap.ErrorText))
		s.app.Ctrl.ClearError()
		return
	}
	s.resetView()
	s.printNewMessages()
}

func (s *InteractiveSession) handleHistory(ctx context.Context) {
	chats, err := s.app.Ctrl.History(ctx, 1, s.app.Manager.Get().HistoryPageSize)
	if err != nil {
		if errors.Is(err, controller.ErrAuthRequired) {
			fmt.Println(errorStyle.Render("History needs an account. Run `docongo login` first."))
			return
		}
		fmt.Println(errorStyle.Render("Could not load history: " + err.Error()))
		return
	}
	if len(chats) == 0 {
		fmt.Println(dimStyle.Render("No past consultations yet."))
		return
	}

	sessionID, err := PromptForSession(chats)
	if err != nil || sessionID == "" {
		return
	}
	if err := s.app.Ctrl.SwitchTo(ctx, sessionID); err != nil {
		fmt.Println(errorStyle.Render("Could not open that consultation: " + err.Error()))
		return
	}
	s.resetView()
	s.printNewMessages()
}

func (s *InteractiveSession) handlePrescription(ctx context.Context) {
	snap := s.app.Ctrl.Snapshot()
	if snap.Prescription == nil {
		err := s.app.Ctrl.GeneratePrescription(ctx)
		switch {
		case errors.Is(err, controller.ErrConversationTooShort):
			fmt.Println(errorStyle.Render(s.app.Ctrl.Snapshot().PrescriptionError))
			s.app.Ctrl.ClearError()
			return
		case errors.Is(err, controller.ErrAPIKeyRequired):
			fmt.Println(errorStyle.Render("Set an API key first with /key."))
			return
		case errors.Is(err, controller.ErrBusy):
			fmt.Println(errorStyle.Render("A prescription is already being generated."))
			return
		}
		s.printNewMessages()
		snap = s.app.Ctrl.Snapshot()
		if snap.PrescriptionError != "" {
			fmt.Println(errorStyle.Render(snap.PrescriptionError))
			s.app.Ctrl.ClearError()
			return
		}
	}
	fmt.Println(RenderPrescription(snap.Prescription))
}

func (s *InteractiveSession) handleExport() {
	snap := s.app.Ctrl.Snapshot()
	if snap.Prescription == nil {
		fmt.Println(errorStyle.Render("No prescription yet. Use /prescription first."))
		return
	}
	path, err := ExportPrescription(s.app.Manager.Get().ExportDir, snap.SessionID, snap.Prescription)
	if err != nil {
		fmt.Println(errorStyle.Render("Export failed: " + err.Error()))
		return
	}
	fmt.Println(dimStyle.Render("Saved to " + path))
}

func (s *InteractiveSession) handleKeyChange(ctx context.Context) {
	key, err := PromptForAPIKey()
	if err != nil {
		return
	}
	if err := s.app.Keeper.Save(ctx, key); err != nil {
		fmt.Println(errorStyle.Render("Could not save the key: " + err.Error()))
		return
	}
	fmt.Println(dimStyle.Render("API key updated."))
}

// resetView forgets print bookkeeping after the transcript was replaced
// wholesale.
func (s *InteractiveSession) resetView() {
	s.printed = 0
	s.shownID = ""
	fmt.Println()
}

// printNewMessages prints transcript messages added since the last
// call. A session change resets the window so the reopened transcript
// prints from the top.
func (s *InteractiveSession) printNewMessages() {
	snap := s.app.Ctrl.Snapshot()
	if snap.SessionID != s.shownID {
		s.printed = 0
		s.shownID = snap.SessionID
	}

	stable := make([]models.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if !m.IsTyping {
			stable = append(stable, m)
		}
	}
	for _, m := range stable[min(s.printed, len(stable)):] {
		fmt.Println(RenderMessage(m))
	}
	s.printed = len(stable)
}
