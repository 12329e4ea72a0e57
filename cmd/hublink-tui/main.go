// Command hublink-tui is the full-screen terminal frontend for the hub
// daemon, built on Bubble Tea.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codefionn/hublink/internal/config"
	"github.com/codefionn/hublink/internal/hubclient"
	"github.com/codefionn/hublink/internal/logger"
	"github.com/codefionn/hublink/internal/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	controlURL := flag.String("url", "", "hub control URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hublink-tui: %v\n", err)
		return 1
	}
	if *controlURL != "" {
		if cfg.Address, err = config.ResolveAddress(*controlURL); err != nil {
			fmt.Fprintf(os.Stderr, "hublink-tui: %v\n", err)
			return 1
		}
	}

	log := logger.Nop()
	if cfg.LogPath != "" {
		if log, err = logger.NewFile(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
			fmt.Fprintf(os.Stderr, "hublink-tui: %v\n", err)
			return 1
		}
	}
	defer log.Close()

	clientCfg := hubclient.DefaultConfig(cfg.Address)
	clientCfg.Logger = log
	if cfg.RequestTimeout > 0 {
		clientCfg.RequestTimeout = cfg.RequestTimeout
	}
	if cfg.ReconnectDelay > 0 {
		clientCfg.ReconnectDelay = cfg.ReconnectDelay
	}

	client := hubclient.New(clientCfg)
	defer client.Close()

	if err := client.Connect(); err != nil {
		// The client keeps retrying; the TUI shows the state.
		log.Warn("initial connect: %v", err)
	}

	program := tea.NewProgram(tui.New(client), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "hublink-tui: %v\n", err)
		return 1
	}
	return 0
}
