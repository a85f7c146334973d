// Package audio owns announcement playback on a kiosk. The actual audio
// output is delegated to an external player command; the coordinator wraps
// every play with the playback-status signals other surfaces duck their
// media volume on.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Player plays one MP3 payload to completion.
type Player interface {
	Play(ctx context.Context, mp3 []byte) error
}

// ExecPlayer pipes audio to an external command's stdin (e.g. "mpg123 -q -").
type ExecPlayer struct {
	command []string
}

// NewExecPlayer parses a shell-style command line. The audio payload is
// written to the command's stdin.
func NewExecPlayer(commandLine string) (*ExecPlayer, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	return &ExecPlayer{command: fields}, nil
}

// Play runs the player command until the audio finishes or ctx is canceled.
func (p *ExecPlayer) Play(ctx context.Context, mp3 []byte) error {
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(mp3)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("player %s: %w", p.command[0], err)
	}
	return nil
}

// NullPlayer discards audio; used on silent kiosks and in tests.
type NullPlayer struct{}

// Play implements Player.
func (NullPlayer) Play(ctx context.Context, mp3 []byte) error {
	return nil
}
