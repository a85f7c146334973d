package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("language", []byte(`"ru"`)); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get("language")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `"ru"` {
		t.Errorf("Expected %q, got %q", `"ru"`, string(got))
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPut_LastWriteWins(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("k", []byte("first")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Put("k", []byte("second")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Expected whole-value replacement, got %q", string(got))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing key is not an error
	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) failed: %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := openTestStore(t)

	type ticket struct {
		ID     string `json:"id"`
		Number int    `json:"number"`
	}

	if err := s.PutJSON("queueTicket", ticket{ID: "abc", Number: 42}); err != nil {
		t.Fatalf("PutJSON() failed: %v", err)
	}

	var got ticket
	if err := s.GetJSON("queueTicket", &got); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}
	if got.ID != "abc" || got.Number != 42 {
		t.Errorf("Unexpected ticket: %+v", got)
	}
}

func TestWatch_DeliversNewValues(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	values := make(chan string, 4)
	s.Watch(ctx, "watched", func(v []byte) {
		values <- string(v)
	})

	// Subscription registration races with the first write; give it a beat.
	time.Sleep(50 * time.Millisecond)

	if err := s.Put("watched", []byte("one")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Put("other", []byte("noise")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Put("watched", []byte("two")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	for _, want := range []string{"one", "two"} {
		select {
		case got := <-values:
			if got != want {
				t.Errorf("Expected %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %q", want)
		}
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	values := make(chan string, 4)
	s.Watch(ctx, "watched", func(v []byte) {
		values <- string(v)
	})

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	if err := s.Put("watched", []byte("late")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	select {
	case got := <-values:
		t.Errorf("Expected no delivery after cancel, got %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}
