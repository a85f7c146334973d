package audio

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/announce"
	"github.com/admitq/queue-kiosk/internal/observability"
)

// StatusPublisher is the slice of the announcement channel playback needs.
type StatusPublisher interface {
	PublishPlayback(isPlaying bool, audioID string)
}

// Playback decodes announcement audio and plays it through a Player,
// bracketing the playback with status signals so other surfaces can duck.
type Playback struct {
	player Player
	status StatusPublisher
	log    zerolog.Logger
}

// NewPlayback builds a playback coordinator.
func NewPlayback(player Player, status StatusPublisher, log zerolog.Logger) *Playback {
	return &Playback{
		player: player,
		status: status,
		log:    log.With().Str("component", "playback").Logger(),
	}
}

// Play decodes rec's base64 MP3 payload and plays it to completion. The
// playing status is published before playback starts and cleared when it
// ends, including on failure, so listeners never stay ducked.
func (p *Playback) Play(ctx context.Context, rec announce.Record) error {
	if rec.AudioBase64 == "" {
		return nil
	}
	mp3, err := base64.StdEncoding.DecodeString(rec.AudioBase64)
	if err != nil {
		return fmt.Errorf("decode announcement audio: %w", err)
	}

	p.status.PublishPlayback(true, rec.AudioID)
	observability.SetPlaybackActive(true)
	defer func() {
		p.status.PublishPlayback(false, rec.AudioID)
		observability.SetPlaybackActive(false)
	}()

	p.log.Debug().
		Str("audio_id", rec.AudioID).
		Int("bytes", len(mp3)).
		Msg("playing announcement")

	if err := p.player.Play(ctx, mp3); err != nil {
		p.log.Error().Err(err).Str("audio_id", rec.AudioID).Msg("announcement playback failed")
		return err
	}
	return nil
}
