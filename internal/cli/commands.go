package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GarvGoel08/DocOnGo/internal/controller"
)

const version = "1.2.0"

// NewRootCmd creates the root command. Running it without a subcommand
// starts the interactive consultation.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docongo",
		Short: "DocOnGo - AI doctor consultations in your terminal",
		Long: `DocOnGo is a terminal client for AI-assisted medical consultations.
Describe your symptoms in a chat, follow the staged consultation, and
get an informational prescription you can export as markdown.

Nothing DocOnGo produces is medical advice; always consult a licensed
healthcare provider.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd)
		},
	}

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPrescriptionCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")

	return rootCmd
}

// buildApp wires the application from the persistent flags.
func buildApp(cmd *cobra.Command, ctrlOpts ...controller.Option) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return NewApp(configPath, debug, ctrlOpts...)
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive consultation (the default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd)
		},
	}
}

func runChat(cmd *cobra.Command) error {
	var session *InteractiveSession
	app, err := buildApp(cmd, controller.WithObserver(func(snap controller.Snapshot) {
		if session != nil {
			session.OnUpdate(snap)
		}
	}))
	if err != nil {
		return err
	}
	cfg := app.Manager.Get()
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	session = NewInteractiveSession(app)
	return session.Start(cmd.Context())
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to sync consultations and your API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}

			in, err := PromptForLogin()
			if err != nil {
				return err
			}
			resp, err := app.Auth.Login(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := app.Manager.SaveSession(resp.Token, resp.User.Name, resp.User.Email); err != nil {
				return err
			}

			fmt.Printf("Welcome back, %s!\n", resp.User.Name)
			reportServerKey(cmd.Context(), app)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}

			in, err := PromptForRegister()
			if err != nil {
				return err
			}
			resp, err := app.Auth.Register(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if err := app.Manager.SaveSession(resp.Token, resp.User.Name, resp.User.Email); err != nil {
				return err
			}

			fmt.Printf("Account created. Welcome, %s!\n", resp.User.Name)
			fmt.Println("Run `docongo` to start your first consultation.")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			if app.Manager.AuthToken() == "" {
				fmt.Println("Not logged in.")
				return nil
			}
			if err := app.Manager.ClearSession(); err != nil {
				return err
			}
			fmt.Println("Logged out. Your server-side history is untouched.")
			return nil
		},
	}
}

// reportServerKey tells a freshly logged-in user whether they still
// need to set a Gemini key.
func reportServerKey(ctx context.Context, app *App) {
	if err := app.Keeper.Refresh(ctx); err != nil {
		return
	}
	if app.Keeper.Missing() {
		fmt.Println("No Gemini API key on your account yet; you will be asked for one when chatting.")
	}
}

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List past consultations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			chats, err := app.Ctrl.History(cmd.Context(), page, app.Manager.Get().HistoryPageSize)
			if err != nil {
				return historyError(err)
			}
			fmt.Println(RenderHistory(chats))
			return nil
		},
	}
	historyCmd.Flags().Int("page", 1, "History page to show")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Reopen a past consultation read-only",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			chats, err := app.Ctrl.History(cmd.Context(), 1, app.Manager.Get().HistoryPageSize)
			if err != nil {
				return historyError(err)
			}
			sessionID, err := PromptForSession(chats)
			if err != nil || sessionID == "" {
				return err
			}
			if err := app.Ctrl.SwitchTo(cmd.Context(), sessionID); err != nil {
				return fmt.Errorf("open consultation: %w", err)
			}

			snap := app.Ctrl.Snapshot()
			for _, m := range snap.Messages {
				fmt.Println(RenderMessage(m))
			}
			fmt.Println()
			fmt.Println(RenderStatusLine(snap.Metadata, snap.Progress))
			if snap.Prescription != nil {
				fmt.Println()
				fmt.Println(RenderPrescription(snap.Prescription))
			}
			return nil
		},
	})

	historyCmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete a past consultation",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			chats, err := app.Ctrl.History(cmd.Context(), 1, app.Manager.Get().HistoryPageSize)
			if err != nil {
				return historyError(err)
			}
			sessionID, err := PromptForSession(chats)
			if err != nil || sessionID == "" {
				return err
			}

			title := sessionID
			for _, chat := range chats {
				if chat.SessionID == sessionID && strings.TrimSpace(chat.Title) != "" {
					title = chat.Title
				}
			}
			confirmed, err := PromptForDeleteConfirmation(title)
			if err != nil || !confirmed {
				return err
			}
			if err := app.Ctrl.Delete(cmd.Context(), sessionID); err != nil {
				return fmt.Errorf("delete consultation: %w", err)
			}
			fmt.Println("Deleted.")
			return nil
		},
	})

	return historyCmd
}

func historyError(err error) error {
	if errors.Is(err, controller.ErrAuthRequired) {
		return fmt.Errorf("history needs an account; run `docongo login` first")
	}
	return err
}

func newPrescriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prescription SESSION_ID",
		Short: "Show a consultation's prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			sessionID := args[0]
			if err := app.Ctrl.SwitchTo(cmd.Context(), sessionID); err != nil {
				return fmt.Errorf("load consultation: %w", err)
			}

			snap := app.Ctrl.Snapshot()
			fmt.Println(RenderPrescription(snap.Prescription))

			export, _ := cmd.Flags().GetBool("export")
			if export && snap.Prescription != nil {
				path, err := ExportPrescription(app.Manager.Get().ExportDir, sessionID, snap.Prescription)
				if err != nil {
					return err
				}
				fmt.Println("Saved to " + path)
			}
			return nil
		},
	}
	cmd.Flags().Bool("export", false, "Also save the prescription as a markdown file")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status SESSION_ID",
		Short: "Show a session's stage and message count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			status, err := app.Client.SessionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Session:   %s\n", status.SessionID)
			fmt.Printf("Stage:     %s\n", stageLabel(status.Stage))
			fmt.Printf("Messages:  %d\n", status.MessageCount)
			if len(status.DetectedSymptoms) > 0 {
				fmt.Printf("Symptoms:  %s\n", strings.Join(status.DetectedSymptoms, ", "))
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Manager.Get()
			fmt.Printf("Config file:       %s\n", app.Manager.Path())
			fmt.Printf("Backend URL:       %s\n", cfg.BackendURL)
			fmt.Printf("Request timeout:   %ds\n", cfg.RequestTimeoutSeconds)
			fmt.Printf("Typing indicator:  %dms\n", cfg.TypingIndicatorMS)
			fmt.Printf("History page size: %d\n", cfg.HistoryPageSize)
			fmt.Printf("Export directory:  %s\n", cfg.ExportDir)
			fmt.Printf("Debug:             %t\n", cfg.Debug)
			fmt.Println()
			if cfg.AuthToken != "" {
				fmt.Printf("Logged in as:      %s <%s>\n", cfg.UserName, cfg.UserEmail)
			} else {
				fmt.Println("Logged in as:      (not logged in)")
			}
			if cfg.GeminiAPIKey != "" {
				fmt.Println("Gemini API key:    configured locally")
			} else if cfg.AuthToken != "" {
				fmt.Println("Gemini API key:    managed by your account")
			} else {
				fmt.Println("Gemini API key:    not configured")
			}
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-url BACKEND_URL",
		Short: "Point the client at a different backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Manager.Get()
			cfg.BackendURL = args[0]
			if err := app.Manager.Update(cfg); err != nil {
				return err
			}
			fmt.Println("Backend URL updated.")
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-key",
		Short: "Set the Gemini API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			key, err := PromptForAPIKey()
			if err != nil {
				return err
			}
			if err := app.Keeper.Save(cmd.Context(), key); err != nil {
				return err
			}
			if app.Manager.AuthToken() != "" {
				fmt.Println("API key saved to your account.")
			} else {
				fmt.Println("API key saved locally.")
			}
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("DocOnGo v%s\n", version)
			fmt.Println("AI doctor consultations in your terminal")
		},
	}
}
