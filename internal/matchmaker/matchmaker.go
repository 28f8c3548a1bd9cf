package matchmaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/util"
)

// waitPerPosition is the rough wait estimate surfaced per queue slot.
const waitPerPosition = 5 * time.Second

// Ticket is one waiting searcher.
type Ticket struct {
	Participant model.Participant
	Prefs       model.Preferences
	EnqueuedAt  time.Time
}

// Match pairs two tickets into a new room.
type Match struct {
	RoomID string
	A      Ticket
	B      Ticket
}

// MatchHandler is invoked outside the queue lock whenever a pair is made.
type MatchHandler func(Match)

// StatusHandler receives queue position updates for a waiting participant.
type StatusHandler func(participantID string, status model.QueueStatus)

// Service holds the FIFO waiting list and pairs compatible searchers. The
// longest-waiting compatible candidate wins, so wait order is deterministic.
type Service struct {
	mu       sync.Mutex
	waiting  []*Ticket
	byID     map[string]*Ticket
	onMatch  MatchHandler
	onStatus StatusHandler
}

func NewService(onMatch MatchHandler, onStatus StatusHandler) *Service {
	return &Service{
		byID:     make(map[string]*Ticket),
		onMatch:  onMatch,
		onStatus: onStatus,
	}
}

// Enqueue registers a searcher and immediately tries to pair it. A
// participant appears at most once in the queue; re-enqueueing replaces the
// previous ticket.
func (s *Service) Enqueue(ticket Ticket) {
	ticket.Prefs = ticket.Prefs.Normalize()
	if ticket.EnqueuedAt.IsZero() {
		ticket.EnqueuedAt = time.Now()
	}

	s.mu.Lock()

	if _, ok := s.byID[ticket.Participant.ParticipantID]; ok {
		s.removeLocked(ticket.Participant.ParticipantID)
	}

	candidate := s.findCompatibleLocked(&ticket)
	if candidate != nil {
		s.removeLocked(candidate.Participant.ParticipantID)
		match := Match{
			RoomID: util.NewID(),
			A:      *candidate,
			B:      ticket,
		}
		statuses := s.statusesLocked()
		s.mu.Unlock()

		log.Info().
			Str("roomId", match.RoomID).
			Str("participantA", match.A.Participant.ParticipantID).
			Str("participantB", match.B.Participant.ParticipantID).
			Msg("match made")

		s.onMatch(match)
		s.notify(statuses)
		return
	}

	t := ticket
	s.waiting = append(s.waiting, &t)
	s.byID[t.Participant.ParticipantID] = &t
	statuses := s.statusesLocked()
	s.mu.Unlock()

	log.Debug().
		Str("participantId", t.Participant.ParticipantID).
		Int("totalWaiting", len(statuses)).
		Msg("searcher enqueued")

	s.notify(statuses)
}

// Dequeue removes a searcher, returning false when it was not waiting.
func (s *Service) Dequeue(participantID string) bool {
	s.mu.Lock()
	_, ok := s.byID[participantID]
	if ok {
		s.removeLocked(participantID)
	}
	statuses := s.statusesLocked()
	s.mu.Unlock()

	if ok {
		s.notify(statuses)
	}
	return ok
}

// Status reports the queue position for a waiting participant.
func (s *Service) Status(participantID string) (model.QueueStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.waiting {
		if t.Participant.ParticipantID == participantID {
			return queueStatus(i, len(s.waiting)), true
		}
	}
	return model.QueueStatus{}, false
}

// TotalWaiting returns the current queue depth.
func (s *Service) TotalWaiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiting)
}

// findCompatibleLocked scans from the front so the longest-waiting
// compatible candidate is picked.
func (s *Service) findCompatibleLocked(ticket *Ticket) *Ticket {
	for _, candidate := range s.waiting {
		if candidate.Participant.UserID == ticket.Participant.UserID {
			continue
		}
		if candidate.Prefs.Compatible(ticket.Prefs) {
			return candidate
		}
	}
	return nil
}

func (s *Service) removeLocked(participantID string) {
	delete(s.byID, participantID)
	for i, t := range s.waiting {
		if t.Participant.ParticipantID == participantID {
			s.waiting = append(s.waiting[:i], s.waiting[i+1:]...)
			return
		}
	}
}

type queuedStatus struct {
	participantID string
	status        model.QueueStatus
}

func (s *Service) statusesLocked() []queuedStatus {
	statuses := make([]queuedStatus, 0, len(s.waiting))
	for i, t := range s.waiting {
		statuses = append(statuses, queuedStatus{
			participantID: t.Participant.ParticipantID,
			status:        queueStatus(i, len(s.waiting)),
		})
	}
	return statuses
}

func (s *Service) notify(statuses []queuedStatus) {
	if s.onStatus == nil {
		return
	}
	for _, qs := range statuses {
		s.onStatus(qs.participantID, qs.status)
	}
}

func queueStatus(position, total int) model.QueueStatus {
	return model.QueueStatus{
		Position:          position + 1,
		EstimatedWaitTime: time.Duration(position+1) * waitPerPosition,
		TotalWaiting:      total,
	}
}
