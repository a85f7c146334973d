// Package announce is the cross-surface announcement channel: a typed
// pub/sub layered on two well-known keys of the shared store. Delivery is
// at-most-once. A write that fails or a notification that lands while no
// subscriber is running is never redelivered; the next reader only sees the
// current value.
package announce

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/store"
)

const (
	keyAnnouncement = "currentAnnouncement"
	keyStatus       = "announcementStatus"

	// DefaultHistory bounds the per-subscriber set of already-played audio
	// IDs. A re-read or duplicate notification within this window is not
	// replayed.
	DefaultHistory = 10

	// DefaultDebounce absorbs double-fire notification quirks on the status
	// key: two notifications with nearly equal timestamps are one event.
	DefaultDebounce = 100 * time.Millisecond
)

// envelope wraps every stored value with the writer's origin so subscribers
// can enforce the no-self-notification contract: the underlying store
// notifies all watchers, including the writer, but a surface must never react
// to its own writes. A nil Record is the cleared marker.
type envelope struct {
	Origin string  `json:"origin"`
	Record *Record `json:"record"`
}

type statusEnvelope struct {
	Origin string         `json:"origin"`
	Status PlaybackStatus `json:"status"`
}

// Channel is one surface's handle on the announcement channel. Each handle
// has its own origin ID; handles in the same process are distinct origins,
// mirroring one browser tab per handle.
type Channel struct {
	store    *store.Store
	origin   string
	history  int
	debounce time.Duration
	log      zerolog.Logger
}

// Option tweaks a channel handle.
type Option func(*Channel)

// WithHistory overrides the dedup history size.
func WithHistory(n int) Option {
	return func(c *Channel) { c.history = n }
}

// WithDebounce overrides the status debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Channel) { c.debounce = d }
}

// NewChannel creates a handle with a fresh origin ID.
func NewChannel(st *store.Store, log zerolog.Logger, opts ...Option) *Channel {
	c := &Channel{
		store:    st,
		origin:   uuid.NewString(),
		history:  DefaultHistory,
		debounce: DefaultDebounce,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish writes rec as the current announcement. Other surfaces receive a
// change notification; this handle does not, so the caller must trigger its
// own local playback independently. Store failures are swallowed: the
// announcement is simply not propagated.
func (c *Channel) Publish(rec Record) {
	if rec.AudioID == "" {
		rec.AudioID = uuid.NewString()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}

	if err := c.putJSON(keyAnnouncement, envelope{Origin: c.origin, Record: &rec}); err != nil {
		observability.RecordChannelWriteFailure()
		c.log.Error().Err(err).Str("audio_id", rec.AudioID).Msg("failed to publish announcement")
		return
	}
	observability.RecordAnnouncementPublished()
	c.log.Debug().Str("audio_id", rec.AudioID).Int("queue_number", rec.QueueNumber).Msg("announcement published")
}

// Clear removes the current announcement by writing the cleared marker.
// Called on whichever of playback end, a newer call-next, or finishing work
// happens first.
func (c *Channel) Clear() {
	if err := c.putJSON(keyAnnouncement, envelope{Origin: c.origin}); err != nil {
		observability.RecordChannelWriteFailure()
		c.log.Error().Err(err).Msg("failed to clear announcement")
	}
}

// PublishPlayback signals that audio playback started or stopped. Written by
// whichever surface owns the actual audio output for the announcement.
func (c *Channel) PublishPlayback(isPlaying bool, audioID string) {
	status := PlaybackStatus{
		IsPlaying: isPlaying,
		Timestamp: time.Now().UnixMilli(),
		AudioID:   audioID,
	}
	if err := c.putJSON(keyStatus, statusEnvelope{Origin: c.origin, Status: status}); err != nil {
		observability.RecordChannelWriteFailure()
		c.log.Error().Err(err).Msg("failed to publish playback status")
	}
}

// Current returns the announcement currently in the store, if any.
func (c *Channel) Current() (Record, bool) {
	var env envelope
	if err := c.store.GetJSON(keyAnnouncement, &env); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Msg("failed to read current announcement")
		}
		return Record{}, false
	}
	if env.Record == nil {
		return Record{}, false
	}
	return *env.Record, true
}

// Subscribe delivers announcements published by other surfaces until ctx is
// canceled. The announcement already current at subscribe time is delivered
// too (a surface opened mid-announcement must still play it). Each
// subscription keeps a bounded history of audio IDs it has reacted to; a
// record seen again is silently dropped, so a re-subscribing or re-reading
// surface never replays audio.
func (c *Channel) Subscribe(ctx context.Context, fn func(Record)) {
	seen := newIDRing(c.history)

	deliver := func(env envelope) {
		if env.Origin == c.origin || env.Record == nil {
			return
		}
		if seen.contains(env.Record.AudioID) {
			observability.RecordAnnouncementDeduped()
			return
		}
		seen.add(env.Record.AudioID)
		observability.RecordAnnouncementReceived()
		fn(*env.Record)
	}

	c.store.Watch(ctx, keyAnnouncement, func(value []byte) {
		var env envelope
		if err := json.Unmarshal(value, &env); err != nil {
			c.log.Warn().Err(err).Msg("malformed announcement record")
			return
		}
		deliver(env)
	})

	// Catch up with the value already in the store.
	var env envelope
	if err := c.store.GetJSON(keyAnnouncement, &env); err == nil {
		deliver(env)
	}
}

// SubscribeStatus delivers playback status changes from other surfaces.
// Notifications whose timestamps fall within the debounce window of the
// previous one are treated as duplicates of the same physical event.
func (c *Channel) SubscribeStatus(ctx context.Context, fn func(PlaybackStatus)) {
	var mu sync.Mutex
	var lastTimestamp int64

	c.store.Watch(ctx, keyStatus, func(value []byte) {
		var env statusEnvelope
		if err := json.Unmarshal(value, &env); err != nil {
			c.log.Warn().Err(err).Msg("malformed playback status")
			return
		}
		if env.Origin == c.origin {
			return
		}

		mu.Lock()
		if lastTimestamp != 0 && absDiff(env.Status.Timestamp, lastTimestamp) < c.debounce.Milliseconds() {
			mu.Unlock()
			return
		}
		lastTimestamp = env.Status.Timestamp
		mu.Unlock()

		fn(env.Status)
	})
}

func (c *Channel) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Put(key, data)
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// idRing remembers the last n IDs.
type idRing struct {
	mu  sync.Mutex
	ids []string
	max int
}

func newIDRing(max int) *idRing {
	if max <= 0 {
		max = DefaultHistory
	}
	return &idRing{max: max}
}

func (r *idRing) contains(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.ids {
		if have == id {
			return true
		}
	}
	return false
}

func (r *idRing) add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	if len(r.ids) > r.max {
		r.ids = r.ids[len(r.ids)-r.max:]
	}
}
