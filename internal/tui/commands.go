package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/codefionn/hublink/internal/hubclient"
	"github.com/codefionn/hublink/internal/protocol"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// RunCommand executes one typed command line and renders the outcome as a
// single log line. Shared by the TUI (off the update loop, because requests
// block) and the readline frontend.
func RunCommand(client *hubclient.Client, line string) string {
	verb, rest := splitCommand(line)

	switch verb {
	case "status":
		status, err := client.Status()
		if err != nil {
			return fmt.Sprintf("status error: %v", err)
		}
		return fmt.Sprintf("status: host=%s connected=%v", status.Host, status.Connected)
	case "files":
		files, err := client.Files()
		if err != nil {
			return fmt.Sprintf("files error: %v", err)
		}
		if len(files) == 0 {
			return "files: none"
		}
		return "files: " + strings.Join(files, ", ")
	case "play":
		if rest == "" {
			return "usage: play <file>"
		}
		if err := client.Play(rest); err != nil {
			return fmt.Sprintf("play error: %v", err)
		}
		return "playing " + rest
	case "broadcast":
		if rest == "" {
			return "usage: broadcast <message>"
		}
		if err := client.Broadcast(rest); err != nil {
			return fmt.Sprintf("broadcast error: %v", err)
		}
		return "broadcast sent"
	case "broadcast-play":
		if rest == "" {
			return "usage: broadcast-play <file>"
		}
		if err := client.BroadcastPlay(rest); err != nil {
			return fmt.Sprintf("broadcast-play error: %v", err)
		}
		return "broadcast-play " + rest
	case "command":
		if rest == "" {
			return "usage: command <cmd>"
		}
		result, err := client.Command(rest)
		if err != nil {
			return fmt.Sprintf("command error: %v", err)
		}
		return "result: " + string(result)
	case "upload":
		if rest == "" {
			return "usage: upload <path>"
		}
		data, err := os.ReadFile(rest)
		if err != nil {
			return fmt.Sprintf("upload read error: %v", err)
		}
		res, err := client.Upload(filepath.Base(rest), data)
		if err != nil {
			return fmt.Sprintf("upload error: %v", err)
		}
		return fmt.Sprintf("uploaded %s (%d bytes)", res.Filename, res.Size)
	default:
		return fmt.Sprintf("unknown command %q", verb)
	}
}

func splitCommand(line string) (verb, rest string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	verb = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return verb, rest
}

// FormatEvent renders one server event as a log line.
func FormatEvent(env protocol.Envelope) string {
	switch env.Event {
	case protocol.EventDisconnect:
		if env.Error != "" {
			return "disconnected: " + env.Error
		}
		return "disconnected"
	case "log":
		return "log: " + strings.TrimSpace(string(env.Payload))
	case "error":
		if env.Error != "" {
			return "hub error: " + env.Error
		}
		return "hub error"
	case "":
		return "event (unnamed)"
	default:
		if len(env.Payload) > 0 {
			return fmt.Sprintf("event %s: %s", env.Event, strings.TrimSpace(string(env.Payload)))
		}
		return "event " + env.Event
	}
}
