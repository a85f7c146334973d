package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/announce"
)

type fakePlayer struct {
	mu     sync.Mutex
	played [][]byte
	err    error
}

func (f *fakePlayer) Play(ctx context.Context, mp3 []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, mp3)
	return f.err
}

type statusRecorder struct {
	mu    sync.Mutex
	calls []bool
}

func (s *statusRecorder) PublishPlayback(isPlaying bool, audioID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, isPlaying)
}

func TestPlaySignalsStatusAroundPlayback(t *testing.T) {
	player := &fakePlayer{}
	status := &statusRecorder{}
	pb := NewPlayback(player, status, zerolog.Nop())

	payload := []byte("mp3-bytes")
	rec := announce.Record{
		AudioID:     "a1",
		AudioBase64: base64.StdEncoding.EncodeToString(payload),
	}

	if err := pb.Play(context.Background(), rec); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if len(player.played) != 1 || string(player.played[0]) != "mp3-bytes" {
		t.Fatalf("player received %q, want decoded payload", player.played)
	}
	want := []bool{true, false}
	if len(status.calls) != 2 || status.calls[0] != want[0] || status.calls[1] != want[1] {
		t.Fatalf("status calls = %v, want %v", status.calls, want)
	}
}

func TestPlayClearsStatusOnFailure(t *testing.T) {
	player := &fakePlayer{err: errors.New("device busy")}
	status := &statusRecorder{}
	pb := NewPlayback(player, status, zerolog.Nop())

	rec := announce.Record{
		AudioID:     "a2",
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("x")),
	}
	if err := pb.Play(context.Background(), rec); err == nil {
		t.Fatal("expected playback error")
	}
	if len(status.calls) != 2 || status.calls[1] != false {
		t.Fatalf("status calls = %v, want playing cleared after failure", status.calls)
	}
}

func TestPlaySkipsEmptyAudio(t *testing.T) {
	player := &fakePlayer{}
	status := &statusRecorder{}
	pb := NewPlayback(player, status, zerolog.Nop())

	if err := pb.Play(context.Background(), announce.Record{AudioID: "a3"}); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if len(player.played) != 0 || len(status.calls) != 0 {
		t.Fatal("empty audio must not reach the player or status channel")
	}
}

func TestPlayRejectsBadBase64(t *testing.T) {
	pb := NewPlayback(&fakePlayer{}, &statusRecorder{}, zerolog.Nop())
	err := pb.Play(context.Background(), announce.Record{AudioID: "a4", AudioBase64: "%%%"})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewExecPlayerRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExecPlayer("   "); err == nil {
		t.Fatal("expected error for empty command")
	}
}
