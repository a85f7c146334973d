// Package console drives the staff admission console: the work-status state
// machine, queue calling, and announcement publication. The backend is
// authoritative for status; the console mirrors it and enforces the legal
// transitions locally so an out-of-order button press fails fast instead of
// producing a confusing backend error.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/announce"
	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/refresh"
)

// ErrInvalidTransition is returned when an action is not legal from the
// current work status.
var ErrInvalidTransition = errors.New("invalid work-status transition")

// Backend is the slice of the API client the console uses.
type Backend interface {
	StartWork(ctx context.Context) (api.Employee, error)
	PauseWork(ctx context.Context) (api.Employee, error)
	ResumeWork(ctx context.Context) (api.Employee, error)
	CallNext(ctx context.Context) (api.CallNextResult, error)
	ProcessNext(ctx context.Context) (api.QueueEntry, error)
	CompleteCurrent(ctx context.Context) (api.Employee, error)
	FinishWork(ctx context.Context) (api.Employee, error)
	EmployeeStatus(ctx context.Context) (api.Employee, error)
	AdmissionQueue(ctx context.Context, params api.QueueParams) ([]api.QueueEntry, error)
}

// Announcer publishes announcements to the cross-surface channel.
type Announcer interface {
	Publish(rec announce.Record)
	Clear()
}

// Player plays an announcement on this kiosk.
type Player interface {
	Play(ctx context.Context, rec announce.Record) error
}

// Options tunes the console's auto-call behavior and polling cadences.
type Options struct {
	AutoCallDelay      time.Duration // after start-work and resume
	CompleteCallDelay  time.Duration // after complete, when back to available
	AutoCallTimeout    time.Duration // backend deadline for a timer-driven call, default 10s
	QueuePollInterval  time.Duration // personal queue table, default 10s
	StatusPollInterval time.Duration // server status mirror, default 30s
	SearchDebounce     time.Duration // queue filter quiescence window, default 300ms
}

// Console is one staff member's admission console.
type Console struct {
	backend  Backend
	announce Announcer
	player   Player
	bus      *events.Bus
	opts     Options
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	queueCtl  *refresh.Controller[api.QueueParams, []api.QueueEntry]
	statusCtl *refresh.Controller[struct{}, api.Employee]

	mu       sync.Mutex
	status   string
	current  *api.CallNextResult
	pending  *time.Timer // scheduled auto-call, nil when none
	playing  string      // audio ID of the announcement awaiting playback end
	queue    []api.QueueEntry
	queueErr error
}

// New builds a console in the offline state.
func New(backend Backend, announcer Announcer, player Player, bus *events.Bus, opts Options, log zerolog.Logger) *Console {
	if opts.AutoCallDelay <= 0 {
		opts.AutoCallDelay = 500 * time.Millisecond
	}
	if opts.CompleteCallDelay <= 0 {
		opts.CompleteCallDelay = time.Second
	}
	if opts.AutoCallTimeout <= 0 {
		opts.AutoCallTimeout = 10 * time.Second
	}
	if opts.QueuePollInterval <= 0 {
		opts.QueuePollInterval = 10 * time.Second
	}
	if opts.StatusPollInterval <= 0 {
		opts.StatusPollInterval = 30 * time.Second
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = 300 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		backend:  backend,
		announce: announcer,
		player:   player,
		bus:      bus,
		opts:     opts,
		log:      log.With().Str("component", "console").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		status:   api.StatusOffline,
	}
	c.queueCtl = refresh.New(c.fetchQueue, c.applyQueue, refresh.Options{
		View:     "console_queue",
		Interval: opts.QueuePollInterval,
		Debounce: opts.SearchDebounce,
		Bus:      bus,
		Event:    events.QueueUpdated,
	})
	c.statusCtl = refresh.New(c.fetchStatus, c.applyStatus, refresh.Options{
		View:     "console_status",
		Interval: opts.StatusPollInterval,
	})
	return c
}

// StartPolling begins the personal queue table and status mirror loops.
// Separate from New so short-lived consoles (and tests) skip the traffic.
func (c *Console) StartPolling() {
	c.queueCtl.Start(api.QueueParams{})
	c.statusCtl.Start(struct{}{})
}

// SetQueueFilters replaces the personal queue's filter state. Rapid
// keystrokes coalesce into one fetch.
func (c *Console) SetQueueFilters(params api.QueueParams) {
	c.queueCtl.SetParams(params)
}

// Queue returns the personal queue table and the last fetch error.
func (c *Console) Queue() ([]api.QueueEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.QueueEntry, len(c.queue))
	copy(out, c.queue)
	return out, c.queueErr
}

func (c *Console) fetchQueue(ctx context.Context, params api.QueueParams) ([]api.QueueEntry, error) {
	return c.backend.AdmissionQueue(ctx, params)
}

func (c *Console) applyQueue(entries []api.QueueEntry, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.queueErr = err
		return
	}
	c.queue = entries
	c.queueErr = nil
	observability.SetQueueLength("console", len(entries))
}

func (c *Console) fetchStatus(ctx context.Context, _ struct{}) (api.Employee, error) {
	return c.backend.EmployeeStatus(ctx)
}

// applyStatus mirrors the server's view. The server is authoritative; a
// status changed from another device (or an admin) lands here within one
// polling interval.
func (c *Console) applyStatus(emp api.Employee, err error) {
	if err != nil {
		c.log.Warn().Err(err).Msg("status refresh failed")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if emp.Status != "" && emp.Status != c.status {
		c.log.Info().Str("from", c.status).Str("to", emp.Status).Msg("status updated from server")
		c.status = emp.Status
	}
}

// Status returns the mirrored work status.
func (c *Console) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Current returns the applicant being served, if any.
func (c *Console) Current() (api.CallNextResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return api.CallNextResult{}, false
	}
	return *c.current, true
}

// Sync pulls the server's view of the work status, recovering the mirrored
// state after a console restart mid-shift.
func (c *Console) Sync(ctx context.Context) error {
	emp, err := c.backend.EmployeeStatus(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.status = emp.Status
	c.mu.Unlock()
	return nil
}

// StartWork moves offline to available and schedules the first auto-call.
func (c *Console) StartWork(ctx context.Context) error {
	if err := c.require(api.StatusOffline); err != nil {
		return err
	}
	emp, err := c.backend.StartWork(ctx)
	if err != nil {
		return err
	}
	c.setStatus(emp.Status)
	c.scheduleAutoCall(c.opts.AutoCallDelay)
	return nil
}

// Pause moves available to paused. Any scheduled auto-call is canceled and
// none is scheduled after the pause.
func (c *Console) Pause(ctx context.Context) error {
	if err := c.require(api.StatusAvailable); err != nil {
		return err
	}
	c.cancelAutoCall()
	emp, err := c.backend.PauseWork(ctx)
	if err != nil {
		return err
	}
	c.setStatus(emp.Status)
	return nil
}

// Resume moves paused back to available and schedules an auto-call.
func (c *Console) Resume(ctx context.Context) error {
	if err := c.require(api.StatusPaused); err != nil {
		return err
	}
	emp, err := c.backend.ResumeWork(ctx)
	if err != nil {
		return err
	}
	c.setStatus(emp.Status)
	c.scheduleAutoCall(c.opts.AutoCallDelay)
	return nil
}

// CallNext pulls the next waiting applicant. On success the console goes
// busy, the announcement is published to every surface and played locally,
// and sibling views are told to refresh. An empty queue is a normal outcome:
// the console stays available and no announcement is made.
func (c *Console) CallNext(ctx context.Context) (api.CallNextResult, error) {
	if err := c.require(api.StatusAvailable); err != nil {
		return api.CallNextResult{}, err
	}
	c.cancelAutoCall()

	res, err := c.backend.CallNext(ctx)
	if err != nil {
		return api.CallNextResult{}, err
	}
	if !res.Success {
		c.log.Info().Str("status", res.Status).Msg("queue empty, staying available")
		return res, nil
	}

	c.mu.Lock()
	c.status = api.StatusBusy
	c.current = &res
	c.mu.Unlock()

	c.publishAnnouncement(res)
	c.bus.Publish(events.QueueUpdated)

	c.log.Info().
		Int("queue_number", res.QueueNumber).
		Str("applicant", res.FullName).
		Msg("called next applicant")
	return res, nil
}

// Complete finishes the current applicant. The shared announcement is
// cleared, and when the backend reports the employee available again an
// auto-call is scheduled.
func (c *Console) Complete(ctx context.Context) error {
	if err := c.require(api.StatusBusy); err != nil {
		return err
	}
	emp, err := c.backend.CompleteCurrent(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.status = emp.Status
	c.current = nil
	c.playing = ""
	c.mu.Unlock()

	c.announce.Clear()
	c.bus.Publish(events.QueueUpdated)

	if emp.Status == api.StatusAvailable {
		c.scheduleAutoCall(c.opts.CompleteCallDelay)
	}
	return nil
}

// Finish ends the shift. Pending auto-calls are canceled and the shared
// announcement is cleared.
func (c *Console) Finish(ctx context.Context) error {
	if err := c.require(api.StatusAvailable, api.StatusPaused); err != nil {
		return err
	}
	c.cancelAutoCall()
	emp, err := c.backend.FinishWork(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.status = emp.Status
	c.current = nil
	c.playing = ""
	c.mu.Unlock()

	c.announce.Clear()
	return nil
}

// ProcessNext assigns the next waiting applicant without an announcement.
// Used when the desk pulls someone over in person.
func (c *Console) ProcessNext(ctx context.Context) (api.QueueEntry, error) {
	entry, err := c.backend.ProcessNext(ctx)
	if err != nil {
		return api.QueueEntry{}, err
	}
	c.bus.Publish(events.QueueUpdated)
	return entry, nil
}

// Close cancels timers, polling loops and background playback. The backend
// status is left untouched; use Finish to end the shift.
func (c *Console) Close() {
	c.cancelAutoCall()
	c.queueCtl.Stop()
	c.statusCtl.Stop()
	c.cancel()
}

func (c *Console) setStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Console) require(allowed ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range allowed {
		if c.status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: from %q", ErrInvalidTransition, c.status)
}

// scheduleAutoCall arms a one-shot call-next. A newer schedule replaces a
// pending one.
func (c *Console) scheduleAutoCall(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = time.AfterFunc(delay, c.autoCall)
}

func (c *Console) cancelAutoCall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// autoCall runs from the timer goroutine. The status may have changed since
// it was scheduled, so it re-checks before calling.
func (c *Console) autoCall() {
	c.mu.Lock()
	c.pending = nil
	ok := c.status == api.StatusAvailable
	c.mu.Unlock()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.AutoCallTimeout)
	defer cancel()
	if _, err := c.CallNext(ctx); err != nil {
		c.log.Error().Err(err).Msg("auto call failed")
	}
}

// publishAnnouncement shares the call with every surface and plays it on
// this one. The audio ID is minted here so the local playback status carries
// the same ID the other surfaces see. Playback runs in the background; a
// failed play never blocks the console.
func (c *Console) publishAnnouncement(res api.CallNextResult) {
	if res.Speech == nil || !res.Speech.Success || res.Speech.AudioBase64 == "" {
		return
	}
	rec := announce.Record{
		AudioID:      uuid.NewString(),
		Timestamp:    time.Now().UnixMilli(),
		AudioBase64:  res.Speech.AudioBase64,
		Text:         res.Speech.Text,
		Language:     res.Speech.Language,
		QueueNumber:  res.QueueNumber,
		EmployeeName: res.AssignedEmployeeName,
		Desk:         res.EmployeeDesk,
	}
	c.mu.Lock()
	c.playing = rec.AudioID
	c.mu.Unlock()
	c.announce.Publish(rec)

	if c.player != nil {
		go func() {
			if err := c.player.Play(c.ctx, rec); err != nil {
				c.log.Error().Err(err).Msg("local announcement playback failed")
			}
			c.clearAfterPlayback(rec.AudioID)
		}()
	}
}

// clearAfterPlayback removes the shared announcement once local playback has
// ended, unless a newer call already replaced or cleared it.
func (c *Console) clearAfterPlayback(audioID string) {
	c.mu.Lock()
	if c.playing != audioID {
		c.mu.Unlock()
		return
	}
	c.playing = ""
	c.mu.Unlock()
	c.announce.Clear()
}
