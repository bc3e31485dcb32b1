// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/spectratune/internal/adapter/audio/beepaudio"
	"github.com/tejashwikalptaru/spectratune/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/spectratune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/spectratune/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/spectratune/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/spectratune/internal/logger"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
	"github.com/tejashwikalptaru/spectratune/internal/service"
	"github.com/tejashwikalptaru/spectratune/internal/visualizer"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App
	config  Config

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.MediaEngine

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Services
	playbackService   *service.PlaybackService
	libraryService    *service.LibraryService
	preferenceService *service.PreferenceService

	// Spectrum pipeline
	spectrumStore *visualizer.Store
	visualizer    *visualizer.Visualizer

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	shutdownOnce sync.Once
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	app := &Application{config: config}

	// Step 1: Create logger
	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(config.LogLevel, slog.LevelInfo),
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("app_name", config.AppName),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create an audio engine
	engine, err := app.newAudioEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	app.audioEngine = engine

	// Step 5: Create repositories
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())

	// Step 6: Create the spectrum pipeline and services
	app.spectrumStore = visualizer.NewStore(config.Spectrum.Threshold)
	app.visualizer = visualizer.New(app.spectrumStore)

	dispatcher := ports.DispatcherFunc(fyne.Do)
	app.playbackService = service.NewPlaybackService(
		app.logger,
		app.audioEngine,
		app.eventBus,
		service.NewPlaylist(),
		app.spectrumStore,
		dispatcher,
	)
	app.libraryService = service.NewLibraryService(app.logger, app.eventBus)
	app.preferenceService = service.NewPreferenceService(
		app.logger,
		app.preferencesRepo,
		app.eventBus,
		config.InitialVolume,
	)

	// Step 7: Restore the saved volume
	if err := app.playbackService.SetVolume(app.preferenceService.Volume()); err != nil {
		app.logger.Warn("failed to restore volume", slog.Any("error", err))
	}

	// Step 8: Create UI
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, fyneui.WindowConfig{
		CanvasWidth:  float32(config.Canvas.Width),
		CanvasHeight: float32(config.Canvas.Height),
		Extensions:   app.libraryService.GetSupportedFormats(),
	}, app.logger)

	// Step 9: Create Presenter and wire with UI
	app.presenter = fyneui.NewPresenter(
		app.logger,
		app.playbackService,
		app.libraryService,
		app.visualizer,
		app.eventBus,
		dispatcher,
		app.mainWindow,
	)
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

// newAudioEngine creates and initializes the configured media engine.
func (a *Application) newAudioEngine() (ports.MediaEngine, error) {
	if a.config.UseMockAudio {
		engine := mock.NewEngine()
		engine.SetLogger(a.logger.With(slog.String("engine", "mock")))
		if err := engine.Initialize(a.config.SampleRate, a.config.Spectrum); err != nil {
			return nil, err
		}
		return engine, nil
	}

	engine := beepaudio.NewEngine(a.logger.With(slog.String("engine", "beep")))
	if err := engine.Initialize(a.config.SampleRate, a.config.Spectrum); err != nil {
		return nil, err
	}
	return engine, nil
}

// Run shows the main window and blocks until it is closed.
func (a *Application) Run() error {
	a.logger.Info("SpectraTune started")
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	var shutdownErr error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Shutdown UI and presenter
		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		// Shutdown services (in reverse order of creation)
		if a.preferenceService != nil {
			a.preferenceService.Shutdown()
		}

		if a.libraryService != nil {
			if err := a.libraryService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown library service", slog.Any("error", err))
			}
		}

		if a.playbackService != nil {
			if err := a.playbackService.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown playback service", slog.Any("error", err))
			}
		}

		// Shutdown audio engine
		if a.audioEngine != nil {
			if err := a.audioEngine.Shutdown(); err != nil {
				a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
				shutdownErr = err
			}
		}

		if a.eventBus != nil {
			if err := a.eventBus.Close(); err != nil {
				a.logger.Warn("failed to close event bus", slog.Any("error", err))
			}
		}

		a.logger.Info("application shutdown complete")
	})

	return shutdownErr
}

// GetServices returns the application services.
func (a *Application) GetServices() (*service.PlaybackService, *service.LibraryService, *service.PreferenceService) {
	return a.playbackService, a.libraryService, a.preferenceService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}

// GetPresenter returns the presenter.
func (a *Application) GetPresenter() *fyneui.Presenter {
	return a.presenter
}

// GetVisualizer returns the spectrum visualizer.
func (a *Application) GetVisualizer() *visualizer.Visualizer {
	return a.visualizer
}
