// Package admin is the management surface: staff accounts, the aggregate
// queue across all desks, Excel export, background video settings, and the
// linked Google Sheets report.
package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/refresh"
	"github.com/admitq/queue-kiosk/internal/store"
)

const sheetIDKey = "googleSheetsId"

// Backend is the slice of the API client the admin surface uses.
type Backend interface {
	CreateAdmissionStaff(ctx context.Context, req api.RegisterRequest) (api.Employee, error)
	Employees(ctx context.Context) ([]api.Employee, error)
	UpdateEmployee(ctx context.Context, id string, update api.EmployeeUpdate) (api.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	AllQueue(ctx context.Context, params api.QueueParams) ([]api.QueueEntry, error)
	UpdateEntry(ctx context.Context, id string, update api.QueueUpdate) (api.QueueEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ExportQueueExcel(ctx context.Context) ([]byte, error)
	AdminVideoSettings(ctx context.Context) (api.VideoSettings, error)
	UpdateVideoSettings(ctx context.Context, settings api.VideoSettings) (api.VideoSettings, error)
}

// Sort orders for the aggregate queue table. Sorting is applied locally so
// flipping a column does not cost a round trip.
const (
	SortQueueNumber = "queue_number"
	SortCreatedAt   = "created_at"
	SortStatus      = "status"
	SortFullName    = "full_name"
)

// Filters is the aggregate queue's filter and sort state. Text search and
// filter changes are debounced before fetching.
type Filters struct {
	Status   string
	Search   string // matched against full name server-side
	SortBy   string
	SortDesc bool
}

// Options tunes the admin panel.
type Options struct {
	PollInterval   time.Duration // aggregate queue cadence, default 10s
	SearchDebounce time.Duration // filter quiescence window, default 300ms
}

// Panel is the admin surface.
type Panel struct {
	backend Backend
	store   *store.Store
	log     zerolog.Logger

	ctl *refresh.Controller[Filters, []api.QueueEntry]

	mu        sync.Mutex
	filters   Filters
	entries   []api.QueueEntry
	updatedAt time.Time
	lastErr   error
}

// New builds the panel. Call Start to begin polling the aggregate queue.
func New(backend Backend, st *store.Store, bus *events.Bus, opts Options, log zerolog.Logger) *Panel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = 300 * time.Millisecond
	}
	p := &Panel{
		backend: backend,
		store:   st,
		log:     log.With().Str("component", "admin").Logger(),
	}
	p.ctl = refresh.New(p.fetchQueue, p.applyQueue, refresh.Options{
		View:     "admin_queue",
		Interval: opts.PollInterval,
		Debounce: opts.SearchDebounce,
		Bus:      bus,
		Event:    events.QueueUpdated,
	})
	return p
}

// Start begins polling with the default (unfiltered) view.
func (p *Panel) Start() {
	p.ctl.Start(Filters{SortBy: SortQueueNumber})
}

// Stop tears down the polling loop.
func (p *Panel) Stop() {
	p.ctl.Stop()
}

// Refresh forces an immediate refetch.
func (p *Panel) Refresh() {
	p.ctl.Refresh()
}

// SetFilters replaces the table's filter and sort state. Rapid keystrokes
// coalesce into one fetch.
func (p *Panel) SetFilters(f Filters) {
	p.mu.Lock()
	p.filters = f
	p.mu.Unlock()
	p.ctl.SetParams(f)
}

// Entries returns the current table along with the last fetch error.
func (p *Panel) Entries() ([]api.QueueEntry, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.QueueEntry, len(p.entries))
	copy(out, p.entries)
	return out, p.updatedAt, p.lastErr
}

func (p *Panel) fetchQueue(ctx context.Context, f Filters) ([]api.QueueEntry, error) {
	entries, err := p.backend.AllQueue(ctx, api.QueueParams{
		Status:   f.Status,
		FullName: f.Search,
	})
	if err != nil {
		return nil, err
	}
	sortEntries(entries, f.SortBy, f.SortDesc)
	return entries, nil
}

func (p *Panel) applyQueue(entries []api.QueueEntry, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		return
	}
	p.entries = entries
	p.updatedAt = time.Now()
	p.lastErr = nil
	observability.SetQueueLength("admin", len(entries))
}

// sortEntries orders the table in place. Unknown sort keys fall back to
// queue number.
func sortEntries(entries []api.QueueEntry, by string, desc bool) {
	var less func(a, b api.QueueEntry) bool
	switch by {
	case SortCreatedAt:
		less = func(a, b api.QueueEntry) bool { return a.CreatedAt < b.CreatedAt }
	case SortStatus:
		less = func(a, b api.QueueEntry) bool { return a.Status < b.Status }
	case SortFullName:
		less = func(a, b api.QueueEntry) bool {
			return strings.ToLower(a.FullName) < strings.ToLower(b.FullName)
		}
	default:
		less = func(a, b api.QueueEntry) bool { return a.QueueNumber < b.QueueNumber }
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}

// CreateStaff registers a new admission employee.
func (p *Panel) CreateStaff(ctx context.Context, req api.RegisterRequest) (api.Employee, error) {
	return p.backend.CreateAdmissionStaff(ctx, req)
}

// Employees lists all staff accounts.
func (p *Panel) Employees(ctx context.Context) ([]api.Employee, error) {
	return p.backend.Employees(ctx)
}

// UpdateEmployee patches a staff record.
func (p *Panel) UpdateEmployee(ctx context.Context, id string, update api.EmployeeUpdate) (api.Employee, error) {
	return p.backend.UpdateEmployee(ctx, id, update)
}

// DeleteEmployee removes a staff account.
func (p *Panel) DeleteEmployee(ctx context.Context, id string) error {
	return p.backend.DeleteEmployee(ctx, id)
}

// UpdateEntry patches a queue entry and refreshes the table.
func (p *Panel) UpdateEntry(ctx context.Context, id string, update api.QueueUpdate) (api.QueueEntry, error) {
	entry, err := p.backend.UpdateEntry(ctx, id, update)
	if err != nil {
		return api.QueueEntry{}, err
	}
	p.ctl.Refresh()
	return entry, nil
}

// DeleteEntry removes a queue entry and refreshes the table.
func (p *Panel) DeleteEntry(ctx context.Context, id string) error {
	if err := p.backend.DeleteEntry(ctx, id); err != nil {
		return err
	}
	p.ctl.Refresh()
	return nil
}

// Export returns the backend's Excel queue report.
func (p *Panel) Export(ctx context.Context) ([]byte, error) {
	return p.backend.ExportQueueExcel(ctx)
}

// ExportToFile writes the backend's Excel queue report to path.
func (p *Panel) ExportToFile(ctx context.Context, path string) error {
	data, err := p.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	p.log.Info().Str("path", path).Int("bytes", len(data)).Msg("queue exported")
	return nil
}

// VideoSettings reads the display board's video configuration.
func (p *Panel) VideoSettings(ctx context.Context) (api.VideoSettings, error) {
	return p.backend.AdminVideoSettings(ctx)
}

// UpdateVideo changes the display board's video configuration.
func (p *Panel) UpdateVideo(ctx context.Context, settings api.VideoSettings) (api.VideoSettings, error) {
	return p.backend.UpdateVideoSettings(ctx, settings)
}

// SaveSheetID persists the linked Google Sheets report id.
func (p *Panel) SaveSheetID(id string) error {
	return p.store.Put(sheetIDKey, []byte(id))
}

// SheetID returns the persisted Google Sheets id, if any.
func (p *Panel) SheetID() (string, bool) {
	v, err := p.store.Get(sheetIDKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.log.Warn().Err(err).Msg("failed to read sheet id")
		}
		return "", false
	}
	return string(v), true
}

// SheetLink returns the deep link to the linked report, or "" when none is
// configured.
func (p *Panel) SheetLink() string {
	id, ok := p.SheetID()
	if !ok || id == "" {
		return ""
	}
	return "https://docs.google.com/spreadsheets/d/" + id + "/edit#gid=0"
}
