// Package applicant is the public self-service surface: joining the queue,
// checking position, moving back, and cancelling. The issued ticket is
// persisted locally so a restarted kiosk still shows the applicant their
// place in line.
package applicant

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/store"
)

const ticketKey = "queueTicket"

// Backend is the slice of the API client the public surface uses.
type Backend interface {
	JoinQueue(ctx context.Context, req api.JoinQueueRequest) (api.QueueEntry, error)
	CheckQueueByName(ctx context.Context, fullName string) (api.QueueEntry, error)
	CancelQueue(ctx context.Context, id string) error
	MoveBack(ctx context.Context, id string) (api.QueueEntry, error)
	QueueCount(ctx context.Context) (api.QueueCount, error)
}

// Service handles the applicant-facing queue operations.
type Service struct {
	backend Backend
	store   *store.Store
	bus     *events.Bus
	log     zerolog.Logger
}

// New builds the applicant service.
func New(backend Backend, st *store.Store, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		store:   st,
		bus:     bus,
		log:     log.With().Str("component", "applicant").Logger(),
	}
}

// Join registers the applicant and persists the issued ticket locally.
func (s *Service) Join(ctx context.Context, req api.JoinQueueRequest) (api.QueueEntry, error) {
	entry, err := s.backend.JoinQueue(ctx, req)
	if err != nil {
		return api.QueueEntry{}, err
	}
	if err := s.store.PutJSON(ticketKey, entry); err != nil {
		// The ticket exists server-side either way; losing the local copy
		// only costs the restart convenience.
		s.log.Warn().Err(err).Msg("failed to persist queue ticket")
	}
	s.bus.Publish(events.QueueUpdated)
	s.log.Info().Int("queue_number", entry.QueueNumber).Msg("joined queue")
	return entry, nil
}

// SavedTicket returns the locally persisted ticket, if any.
func (s *Service) SavedTicket() (api.QueueEntry, bool) {
	var entry api.QueueEntry
	err := s.store.GetJSON(ticketKey, &entry)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn().Err(err).Msg("failed to read saved ticket")
		}
		return api.QueueEntry{}, false
	}
	return entry, true
}

// ClearTicket removes the persisted ticket.
func (s *Service) ClearTicket() {
	if err := s.store.Delete(ticketKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear saved ticket")
	}
}

// CheckByName looks an applicant up by full name. A 404 means nobody by
// that name is waiting; it is returned as-is for the caller to branch on.
func (s *Service) CheckByName(ctx context.Context, fullName string) (api.QueueEntry, error) {
	return s.backend.CheckQueueByName(ctx, fullName)
}

// Cancel removes the entry from the queue and drops the saved ticket when
// it matches.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.backend.CancelQueue(ctx, id); err != nil {
		return err
	}
	if saved, ok := s.SavedTicket(); ok && saved.ID == id {
		s.ClearTicket()
	}
	s.bus.Publish(events.QueueUpdated)
	return nil
}

// MoveBack pushes the entry toward the end of the queue and refreshes the
// saved ticket with the new position.
func (s *Service) MoveBack(ctx context.Context, id string) (api.QueueEntry, error) {
	entry, err := s.backend.MoveBack(ctx, id)
	if err != nil {
		return api.QueueEntry{}, err
	}
	if saved, ok := s.SavedTicket(); ok && saved.ID == id {
		if err := s.store.PutJSON(ticketKey, entry); err != nil {
			s.log.Warn().Err(err).Msg("failed to update saved ticket")
		}
	}
	s.bus.Publish(events.QueueUpdated)
	return entry, nil
}

// WaitingCount returns how many applicants are waiting.
func (s *Service) WaitingCount(ctx context.Context) (int, error) {
	count, err := s.backend.QueueCount(ctx)
	if err != nil {
		return 0, err
	}
	return count.Count, nil
}
