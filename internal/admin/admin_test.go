package admin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/store"
)

type fakeBackend struct {
	mu          sync.Mutex
	entries     []api.QueueEntry
	lastParams  api.QueueParams
	fetches     int
	exportBytes []byte
	deleted     []string
}

func (f *fakeBackend) CreateAdmissionStaff(ctx context.Context, req api.RegisterRequest) (api.Employee, error) {
	return api.Employee{ID: "e1", Email: req.Email, FullName: req.FullName}, nil
}

func (f *fakeBackend) Employees(ctx context.Context) ([]api.Employee, error) {
	return []api.Employee{{ID: "e1"}}, nil
}

func (f *fakeBackend) UpdateEmployee(ctx context.Context, id string, update api.EmployeeUpdate) (api.Employee, error) {
	return api.Employee{ID: id, Desk: update.Desk}, nil
}

func (f *fakeBackend) DeleteEmployee(ctx context.Context, id string) error {
	return nil
}

func (f *fakeBackend) AllQueue(ctx context.Context, params api.QueueParams) ([]api.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.lastParams = params
	out := make([]api.QueueEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeBackend) UpdateEntry(ctx context.Context, id string, update api.QueueUpdate) (api.QueueEntry, error) {
	return api.QueueEntry{ID: id, Status: update.Status}, nil
}

func (f *fakeBackend) DeleteEntry(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) ExportQueueExcel(ctx context.Context) ([]byte, error) {
	return f.exportBytes, nil
}

func (f *fakeBackend) AdminVideoSettings(ctx context.Context) (api.VideoSettings, error) {
	return api.VideoSettings{YouTubeURL: "u", IsEnabled: true}, nil
}

func (f *fakeBackend) UpdateVideoSettings(ctx context.Context, settings api.VideoSettings) (api.VideoSettings, error) {
	return settings, nil
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func newPanel(t *testing.T, backend *fakeBackend) *Panel {
	t.Helper()
	st, err := store.Open("", true, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	p := New(backend, st, events.NewBus(), Options{
		PollInterval:   time.Hour,
		SearchDebounce: 10 * time.Millisecond,
	}, zerolog.Nop())
	t.Cleanup(p.Stop)
	return p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestFiltersReachBackendDebounced(t *testing.T) {
	backend := &fakeBackend{}
	p := newPanel(t, backend)
	p.Start()

	if !waitFor(t, time.Second, func() bool { return backend.fetchCount() == 1 }) {
		t.Fatal("initial fetch never happened")
	}

	// Rapid keystrokes coalesce into one fetch with the final value.
	for _, s := range []string{"a", "ai", "aid", "aida"} {
		p.SetFilters(Filters{Search: s, Status: "waiting"})
	}
	if !waitFor(t, time.Second, func() bool { return backend.fetchCount() == 2 }) {
		t.Fatal("debounced fetch never happened")
	}
	time.Sleep(50 * time.Millisecond)
	backend.mu.Lock()
	fetches, params := backend.fetches, backend.lastParams
	backend.mu.Unlock()
	if fetches != 2 {
		t.Fatalf("fetches = %d, want 2 (keystrokes must coalesce)", fetches)
	}
	if params.FullName != "aida" || params.Status != "waiting" {
		t.Fatalf("backend saw params %+v, want final filter values", params)
	}
}

func TestSortEntries(t *testing.T) {
	entries := func() []api.QueueEntry {
		return []api.QueueEntry{
			{QueueNumber: 3, FullName: "Charlie", Status: "waiting", CreatedAt: "2026-08-27T10:03:00"},
			{QueueNumber: 1, FullName: "bella", Status: "completed", CreatedAt: "2026-08-27T10:01:00"},
			{QueueNumber: 2, FullName: "Adil", Status: "in_progress", CreatedAt: "2026-08-27T10:02:00"},
		}
	}

	tests := []struct {
		name string
		by   string
		desc bool
		want []int // queue numbers in expected order
	}{
		{"queue number asc", SortQueueNumber, false, []int{1, 2, 3}},
		{"queue number desc", SortQueueNumber, true, []int{3, 2, 1}},
		{"created at asc", SortCreatedAt, false, []int{1, 2, 3}},
		{"full name case-insensitive", SortFullName, false, []int{2, 1, 3}},
		{"status asc", SortStatus, false, []int{1, 2, 3}},
		{"unknown key falls back to queue number", "bogus", false, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entries()
			sortEntries(got, tt.by, tt.desc)
			for i, want := range tt.want {
				if got[i].QueueNumber != want {
					t.Fatalf("position %d = #%d, want #%d", i, got[i].QueueNumber, want)
				}
			}
		})
	}
}

func TestExportToFile(t *testing.T) {
	backend := &fakeBackend{exportBytes: []byte("PK\x03\x04fake-xlsx")}
	p := newPanel(t, backend)

	path := filepath.Join(t.TempDir(), "queue.xlsx")
	if err := p.ExportToFile(context.Background(), path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "PK\x03\x04fake-xlsx" {
		t.Fatal("export file content mismatch")
	}
}

func TestSheetLink(t *testing.T) {
	p := newPanel(t, &fakeBackend{})

	if link := p.SheetLink(); link != "" {
		t.Fatalf("link = %q, want empty before configuration", link)
	}
	if err := p.SaveSheetID("1AbC_dEf-123"); err != nil {
		t.Fatalf("SaveSheetID: %v", err)
	}
	want := "https://docs.google.com/spreadsheets/d/1AbC_dEf-123/edit#gid=0"
	if link := p.SheetLink(); link != want {
		t.Fatalf("link = %q, want %q", link, want)
	}
}

func TestDeleteEntryRefreshesTable(t *testing.T) {
	backend := &fakeBackend{entries: []api.QueueEntry{{ID: "q1", QueueNumber: 1}}}
	p := newPanel(t, backend)
	p.Start()

	if !waitFor(t, time.Second, func() bool { return backend.fetchCount() == 1 }) {
		t.Fatal("initial fetch never happened")
	}
	if err := p.DeleteEntry(context.Background(), "q1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if !waitFor(t, time.Second, func() bool { return backend.fetchCount() >= 2 }) {
		t.Fatal("table was not refreshed after delete")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.deleted) != 1 || backend.deleted[0] != "q1" {
		t.Fatalf("deleted = %v, want [q1]", backend.deleted)
	}
}
