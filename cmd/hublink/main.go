// Command hublink is an interactive line-mode frontend for the hub daemon:
// a readline prompt for issuing requests, with server events printed
// between prompts.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

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
		fmt.Fprintf(os.Stderr, "hublink: %v\n", err)
		return 1
	}
	if *controlURL != "" {
		if cfg.Address, err = config.ResolveAddress(*controlURL); err != nil {
			fmt.Fprintf(os.Stderr, "hublink: %v\n", err)
			return 1
		}
	}

	log, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hublink: %v\n", err)
		return 1
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
		// Not fatal: the client keeps retrying in the background.
		fmt.Fprintf(os.Stderr, "hublink: %v (retrying)\n", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hub> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hublink: %v\n", err)
		return 1
	}
	defer rl.Close()

	go printEvents(client, rl.Stdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return 0
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return 0
		case "help":
			fmt.Fprintln(rl.Stdout(), "commands: status files play broadcast broadcast-play command upload exit")
			continue
		}
		fmt.Fprintln(rl.Stdout(), tui.RunCommand(client, line))
	}
}

func printEvents(client *hubclient.Client, out io.Writer) {
	for env := range client.Events() {
		fmt.Fprintf(out, "\r[%s]\n", tui.FormatEvent(env))
	}
}

func openLogger(cfg config.Config) (*logger.Logger, error) {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogPath == "" {
		return logger.Nop(), nil
	}
	return logger.NewFile(level, filepath.Clean(cfg.LogPath))
}
