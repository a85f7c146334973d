package session

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("", true, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoginAndRestore(t *testing.T) {
	st := openTestStore(t)

	m := New(st, "ru", zerolog.Nop())
	if m.LoggedIn() {
		t.Error("Expected fresh manager to be logged out")
	}

	user := User{ID: "u1", Email: "staff@example.com", FullName: "Staff One", Role: "admission", Desk: "3"}
	if err := m.SaveLogin("tok-123", user); err != nil {
		t.Fatalf("SaveLogin() failed: %v", err)
	}

	if m.Token() != "tok-123" {
		t.Errorf("Expected token 'tok-123', got %q", m.Token())
	}

	// A new manager over the same store restores the session at startup
	restored := New(st, "ru", zerolog.Nop())
	if restored.Token() != "tok-123" {
		t.Errorf("Expected restored token 'tok-123', got %q", restored.Token())
	}
	if restored.User().FullName != "Staff One" {
		t.Errorf("Expected restored user 'Staff One', got %q", restored.User().FullName)
	}
}

func TestLogout(t *testing.T) {
	st := openTestStore(t)
	m := New(st, "ru", zerolog.Nop())

	if err := m.SaveLogin("tok", User{ID: "u1"}); err != nil {
		t.Fatalf("SaveLogin() failed: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}

	if m.LoggedIn() {
		t.Error("Expected logged out after Logout()")
	}

	restored := New(st, "ru", zerolog.Nop())
	if restored.LoggedIn() {
		t.Error("Expected logout to clear the persisted session")
	}
}

func TestLanguage(t *testing.T) {
	st := openTestStore(t)
	m := New(st, "ru", zerolog.Nop())

	if m.Language() != "ru" {
		t.Errorf("Expected default language 'ru', got %q", m.Language())
	}

	if err := m.SetLanguage("kk"); err != nil {
		t.Fatalf("SetLanguage() failed: %v", err)
	}
	if m.Language() != "kk" {
		t.Errorf("Expected 'kk', got %q", m.Language())
	}

	if err := m.SetLanguage("not a tag"); err == nil {
		t.Error("Expected error for invalid language tag")
	}

	restored := New(st, "ru", zerolog.Nop())
	if restored.Language() != "kk" {
		t.Errorf("Expected persisted language 'kk', got %q", restored.Language())
	}
}
