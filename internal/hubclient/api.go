package hubclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
)

// StatusInfo is the hub's answer to a status request.
type StatusInfo struct {
	Host      string          `json:"host"`
	Connected bool            `json:"connected"`
	Timestamp string          `json:"timestamp"`
	Whoami    json.RawMessage `json:"whoami,omitempty"`
	AudioList json.RawMessage `json:"audioList,omitempty"`
}

type filesResult struct {
	Files []string `json:"files"`
}

type commandResult struct {
	Result json.RawMessage `json:"result"`
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Filename    string `json:"filename"`
	Size        int    `json:"size"`
	ContentType string `json:"contentType"`
}

// Status fetches the hub's current status.
func (c *Client) Status() (*StatusInfo, error) {
	env, err := c.Request("status", nil)
	if err != nil {
		return nil, err
	}
	var info StatusInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, fmt.Errorf("hublink: parse status response: %w", err)
	}
	return &info, nil
}

// Files lists the audio files available on the hub.
func (c *Client) Files() ([]string, error) {
	env, err := c.Request("files", nil)
	if err != nil {
		return nil, err
	}
	var res filesResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("hublink: parse files response: %w", err)
	}
	return res.Files, nil
}

// Command runs an arbitrary hub command and returns its raw result.
func (c *Client) Command(command string) (json.RawMessage, error) {
	env, err := c.Request("command", map[string]any{"command": command})
	if err != nil {
		return nil, err
	}
	var res commandResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("hublink: parse command response: %w", err)
	}
	return res.Result, nil
}

// Play starts local playback of a file on the hub.
func (c *Client) Play(filename string) error {
	_, err := c.Request("play", map[string]any{"filename": filename})
	return err
}

// Broadcast sends a text message to every connected peer.
func (c *Client) Broadcast(message string) error {
	_, err := c.Request("broadcast", map[string]any{"message": message})
	return err
}

// BroadcastPlay triggers playback of a file on every connected peer.
func (c *Client) BroadcastPlay(filename string) error {
	_, err := c.Request("broadcast-play", map[string]any{"filename": filename})
	return err
}

// Upload stores a file on the hub under the given name. The content travels
// base64-encoded inside the request frame.
func (c *Client) Upload(filename string, content []byte) (*UploadResult, error) {
	env, err := c.Request("upload", map[string]any{
		"filename":    filename,
		"base64":      base64.StdEncoding.EncodeToString(content),
		"contentType": detectContentType(filename),
	})
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("hublink: parse upload response: %w", err)
	}
	return &res, nil
}

func detectContentType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
