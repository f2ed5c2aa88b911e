package cli

import (
	"log/slog"
	"os"

	"github.com/GarvGoel08/DocOnGo/config"
	"github.com/GarvGoel08/DocOnGo/internal/api"
	"github.com/GarvGoel08/DocOnGo/internal/controller"
	"github.com/GarvGoel08/DocOnGo/internal/observability"
	"github.com/GarvGoel08/DocOnGo/internal/store"
)

// App wires the pieces of the client together: persisted config,
// credential keeping, the HTTP clients and the conversation
// controller. Commands receive one App and pull what they need.
type App struct {
	Manager *config.Manager
	Keeper  *api.KeyKeeper
	Auth    *api.AuthClient
	Client  *api.Client
	Ctrl    *controller.Controller
}

// NewApp builds the full wiring from the config file at configPath
// (empty means the per-user default location). debug forces verbose
// logging regardless of the persisted setting; ctrlOpts let the caller
// attach an observer or override controller timing.
func NewApp(configPath string, debug bool, ctrlOpts ...controller.Option) (*App, error) {
	var opts []config.ManagerOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	// A chat UI shares the terminal with the transcript, so logs stay
	// quiet unless debugging.
	level := slog.LevelWarn
	if debug || cfg.Debug {
		level = slog.LevelDebug
	}
	observability.SetOutput(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	auth := api.NewAuthClient(cfg.BackendURL, cfg.RequestTimeout())
	keeper := api.NewKeyKeeper(mgr, auth)
	client := api.NewClient(cfg.BackendURL, cfg.RequestTimeout(), keeper)
	ctrlOptions := append([]controller.Option{controller.WithTypingDelay(cfg.TypingDelay())}, ctrlOpts...)
	ctrl := controller.New(client, store.New(), keeper, ctrlOptions...)

	return &App{
		Manager: mgr,
		Keeper:  keeper,
		Auth:    auth,
		Client:  client,
		Ctrl:    ctrl,
	}, nil
}
