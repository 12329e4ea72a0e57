package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the frontends need to reach the hub daemon.
type Config struct {
	// ControlURL is the user-facing hub URL; the socket address derives
	// from it.
	ControlURL string
	// Address is the resolved host:port of the control socket.
	Address string
	// RequestTimeout is the per-request response deadline.
	RequestTimeout time.Duration
	// ReconnectDelay is the fixed delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// LogPath is the diagnostic log file; empty disables file logging.
	LogPath string
	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string
}

const (
	defaultConfigPath = "~/.config/hublink/config.toml"
	defaultControlURL = "http://127.0.0.1:4455"

	// The control socket listens one port above the HTTP control port.
	defaultControlPort = 4455

	envControlURL = "CLIENT_CONTROL_URL"
	envSocketPort = "CLIENT_SOCKET_PORT"
)

// Load locates and parses the hublink config, falling back to defaults when
// the file is missing. Environment variables override the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{ControlURL: defaultControlURL}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		var raw struct {
			ControlURL     string `toml:"control_url"`
			RequestTimeout string `toml:"request_timeout"`
			ReconnectDelay string `toml:"reconnect_delay"`
			LogPath        string `toml:"log_path"`
			LogLevel       string `toml:"log_level"`
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if v := strings.TrimSpace(raw.ControlURL); v != "" {
			cfg.ControlURL = v
		}
		if cfg.RequestTimeout, err = parseDuration(raw.RequestTimeout); err != nil {
			return Config{}, fmt.Errorf("request_timeout: %w", err)
		}
		if cfg.ReconnectDelay, err = parseDuration(raw.ReconnectDelay); err != nil {
			return Config{}, fmt.Errorf("reconnect_delay: %w", err)
		}
		cfg.LogPath = strings.TrimSpace(raw.LogPath)
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if v := strings.TrimSpace(os.Getenv(envControlURL)); v != "" {
		cfg.ControlURL = v
	}

	cfg.Address, err = ResolveAddress(cfg.ControlURL)
	if err != nil {
		return Config{}, err
	}
	if cfg.LogPath != "" {
		if cfg.LogPath, err = expandHome(cfg.LogPath); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// ResolveAddress turns a control URL (or bare host / host:port) into the
// host:port of the control socket. The socket port is the control port plus
// one, unless CLIENT_SOCKET_PORT overrides it.
func ResolveAddress(raw string) (string, error) {
	host := ""
	port := defaultControlPort

	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid control URL %q: %w", raw, err)
		}
		host = parsed.Hostname()
		if p := parsed.Port(); p != "" {
			if port, err = strconv.Atoi(p); err != nil {
				return "", fmt.Errorf("invalid control port %q: %w", p, err)
			}
		}
	} else if h, p, err := net.SplitHostPort(raw); err == nil {
		host = h
		if port, err = strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("invalid control port %q: %w", p, err)
		}
	} else {
		host = raw
	}

	if host == "" {
		host = "127.0.0.1"
	}

	if v := os.Getenv(envSocketPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return "", fmt.Errorf("invalid %s: %w", envSocketPort, err)
		}
		return net.JoinHostPort(host, strconv.Itoa(p)), nil
	}
	return net.JoinHostPort(host, strconv.Itoa(port+1)), nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	return expandHome(path)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
