// Package main is the production entry point for the SpectraTune audio player.
//
// SpectraTune plays local audio files and draws their frequency spectrum live:
// - Event-driven communication between the playback core and the UI
// - Dependency injection for testability
// - MVP pattern for UI decoupling
//
// Build:
//
//	go build -o build/spectratune ./cmd
//
// Run:
//
//	./build/spectratune -config spectratune.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tejashwikalptaru/spectratune/internal/app"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML configuration file (defaults to $"+app.EnvConfigFile+")")
	mockAudio := flag.Bool("mock-audio", false, "Use the silent mock audio engine")
	printVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	var (
		config app.Config
		err    error
	)
	if *configFile != "" {
		config, err = app.LoadConfig(*configFile)
	} else {
		config, err = app.ConfigFromEnv()
	}
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if *mockAudio {
		config.UseMockAudio = true
	}

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}
