package session

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TmuxChannel pastes text into a tmux pane running the interpreter. The pane
// target is "<prefix><session key>", so several interpreter sessions can live
// side by side under one tmux server.
type TmuxChannel struct {
	key    string
	target string
	tmux   string
}

// NewTmuxChannel creates a channel for the session addressed by
// targetPrefix+key. tmuxPath overrides the binary looked up on PATH when
// non-empty.
func NewTmuxChannel(key, targetPrefix, tmuxPath string) *TmuxChannel {
	if tmuxPath == "" {
		tmuxPath = "tmux"
	}
	return &TmuxChannel{
		key:    key,
		target: targetPrefix + key,
		tmux:   tmuxPath,
	}
}

func (c *TmuxChannel) Key() string { return c.key }

// Target returns the tmux pane target the channel addresses.
func (c *TmuxChannel) Target() string { return c.target }

// Send pastes text into the pane literally, then a carriage return. Multi-line
// payloads are sent line by line so the interpreter's line editor sees them
// the same way a human paste would.
func (c *TmuxChannel) Send(ctx context.Context, text string) error {
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if line != "" {
			if err := c.run(ctx, "send-keys", "-t", c.target, "-l", "--", line); err != nil {
				return err
			}
		}
		if err := c.run(ctx, "send-keys", "-t", c.target, "Enter"); err != nil {
			return err
		}
	}
	return nil
}

func (c *TmuxChannel) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.tmux, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("tmux %s: %s: %w", args[0], msg, err)
		}
		return fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return nil
}
