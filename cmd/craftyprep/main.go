package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"craftyprep/internal/config"
	"craftyprep/internal/gui"
	"craftyprep/internal/logger"
	"craftyprep/internal/settings"
	"craftyprep/internal/shutdown"
)

const (
	AppName    = "CraftyPrep"
	AppID      = "com.craftyprep.desktop"
	AppVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		logger.Stderr().Error("Main", fmt.Errorf("configuration load failed: %w", err), nil)
		os.Exit(1)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	appLogger, err := logger.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}

	var store *settings.Store
	if path, err := cfg.Storage.SettingsFile(); err != nil {
		appLogger.Warning("Main", "settings persistence disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		store = settings.NewStore(path)
	}

	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})
	fyneApp := app.NewWithID(AppID)

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(1100, 760))
	window.CenterOnScreen()

	view := gui.NewView(window)
	controller := gui.NewController(view, cfg, store, appLogger)

	shutdownManager := shutdown.NewManager(appLogger)
	shutdownManager.Register("controller", controller)
	shutdownManager.Register("ui", shutdown.Func(func() {
		fyne.Do(fyneApp.Quit)
	}))
	shutdownManager.Listen()

	window.SetOnClosed(shutdownManager.Shutdown)

	appLogger.Info("Main", "application starting", map[string]interface{}{
		"version":       AppVersion,
		"go_version":    runtime.Version(),
		"debounce_ms":   cfg.Processing.DebounceMS,
		"history_depth": cfg.Processing.HistoryDepth,
	})

	view.Show()
	fyneApp.Run()

	shutdownManager.Shutdown()
	appLogger.Info("Main", "application terminated", nil)
}

func configPath() string {
	if path := os.Getenv("CRAFTYPREP_CONFIG"); path != "" {
		return path
	}
	return config.DefaultPath()
}
