// Package display runs the waiting-room board: the public queue table, the
// background video, and announcement playback. The board is read-only; it
// never mutates queue state, it only polls and listens.
package display

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/announce"
	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/refresh"
)

// Backend is the slice of the API client the board polls.
type Backend interface {
	DisplayQueue(ctx context.Context) ([]api.QueueEntry, error)
	PublicVideoSettings(ctx context.Context) (api.VideoSettings, error)
}

// Listener receives announcements and playback status from other surfaces.
type Listener interface {
	Subscribe(ctx context.Context, fn func(announce.Record))
	SubscribeStatus(ctx context.Context, fn func(announce.PlaybackStatus))
}

// Player plays an announcement on this kiosk.
type Player interface {
	Play(ctx context.Context, rec announce.Record) error
}

// Options tunes the board's polling cadences.
type Options struct {
	QueueInterval time.Duration // queue table, default 5s
	VideoInterval time.Duration // video settings, default 30s
}

// Snapshot is the board's current renderable state.
type Snapshot struct {
	Entries    []api.QueueEntry
	UpdatedAt  time.Time
	LastErr    error
	Video      api.VideoSettings
	VideoID    string
	Ducked     bool
	Announcing *announce.Record
}

// Board is one waiting-room display.
type Board struct {
	backend  Backend
	listener Listener
	player   Player
	log      zerolog.Logger

	queueCtl *refresh.Controller[struct{}, []api.QueueEntry]
	videoCtl *refresh.Controller[struct{}, api.VideoSettings]

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	entries    []api.QueueEntry
	updatedAt  time.Time
	lastErr    error
	video      api.VideoSettings
	videoID    string
	ducked     bool
	announcing *announce.Record
}

// New builds a board. Call Start to begin polling and listening.
func New(backend Backend, listener Listener, player Player, bus *events.Bus, opts Options, log zerolog.Logger) *Board {
	if opts.QueueInterval <= 0 {
		opts.QueueInterval = 5 * time.Second
	}
	if opts.VideoInterval <= 0 {
		opts.VideoInterval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		backend:  backend,
		listener: listener,
		player:   player,
		log:      log.With().Str("component", "display").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	b.queueCtl = refresh.New(
		func(ctx context.Context, _ struct{}) ([]api.QueueEntry, error) {
			return b.backend.DisplayQueue(ctx)
		},
		b.applyQueue,
		refresh.Options{
			View:     "display_queue",
			Interval: opts.QueueInterval,
			Bus:      bus,
			Event:    events.QueueUpdated,
		},
	)
	b.videoCtl = refresh.New(
		func(ctx context.Context, _ struct{}) (api.VideoSettings, error) {
			return b.backend.PublicVideoSettings(ctx)
		},
		b.applyVideo,
		refresh.Options{
			View:     "display_video",
			Interval: opts.VideoInterval,
		},
	)
	return b
}

// Start begins polling and subscribes to announcements from other surfaces.
func (b *Board) Start() {
	b.queueCtl.Start(struct{}{})
	b.videoCtl.Start(struct{}{})

	if b.listener != nil {
		b.listener.Subscribe(b.ctx, b.onAnnouncement)
		b.listener.SubscribeStatus(b.ctx, b.onPlaybackStatus)
	}
}

// Stop tears the board down. No state is applied after Stop returns.
func (b *Board) Stop() {
	b.queueCtl.Stop()
	b.videoCtl.Stop()
	b.cancel()
}

// Refresh forces an immediate queue refetch.
func (b *Board) Refresh() {
	b.queueCtl.Refresh()
}

// Snapshot returns the current renderable state.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := make([]api.QueueEntry, len(b.entries))
	copy(entries, b.entries)
	return Snapshot{
		Entries:    entries,
		UpdatedAt:  b.updatedAt,
		LastErr:    b.lastErr,
		Video:      b.video,
		VideoID:    b.videoID,
		Ducked:     b.ducked,
		Announcing: b.announcing,
	}
}

func (b *Board) applyQueue(entries []api.QueueEntry, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		// Keep showing the last good table; the cadence retries soon enough.
		b.lastErr = err
		return
	}
	b.entries = entries
	b.updatedAt = time.Now()
	b.lastErr = nil
	observability.SetQueueLength("display", len(entries))
}

func (b *Board) applyVideo(settings api.VideoSettings, err error) {
	if err != nil {
		b.log.Warn().Err(err).Msg("video settings refresh failed")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.video = settings
	b.videoID = YouTubeID(settings.YouTubeURL)
}

// onAnnouncement ducks the background video, plays the call, and restores.
// Playback runs on the subscription goroutine; announcements are serialized
// per subscriber so overlapping audio cannot happen.
func (b *Board) onAnnouncement(rec announce.Record) {
	b.mu.Lock()
	b.announcing = &rec
	b.ducked = true
	b.mu.Unlock()

	if b.player != nil {
		if err := b.player.Play(b.ctx, rec); err != nil {
			b.log.Error().Err(err).Str("audio_id", rec.AudioID).Msg("board playback failed")
		}
	}

	b.mu.Lock()
	b.announcing = nil
	b.ducked = false
	b.mu.Unlock()
}

// onPlaybackStatus ducks while another surface is playing the announcement.
func (b *Board) onPlaybackStatus(status announce.PlaybackStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ducked = status.IsPlaying
}

var youtubeIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|embed/|shorts/)([A-Za-z0-9_-]{11})`)

// YouTubeID extracts the 11-character video id from the usual URL shapes
// (watch?v=, youtu.be/, embed/, shorts/). Returns "" when none is found.
func YouTubeID(url string) string {
	m := youtubeIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
