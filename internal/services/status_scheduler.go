package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

// Clock abstracts timer creation so tests can drive virtual time instead of
// sleeping through the real delivery delays.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func NewRealClock() Clock { return realClock{} }

// StatusScheduler drives each sent message through delivered and read on
// fixed delays. Transitions are best effort: a failed store update is logged
// and dropped, and later transitions still fire.
type StatusScheduler struct {
	messages       store.MessageStore
	clock          Clock
	deliveredAfter time.Duration
	readAfter      time.Duration

	mu     sync.Mutex
	timers map[string][]Timer
	closed bool
}

func NewStatusScheduler(
	messages store.MessageStore,
	clock Clock,
	deliveredAfter time.Duration,
	readAfter time.Duration,
) *StatusScheduler {
	return &StatusScheduler{
		messages:       messages,
		clock:          clock,
		deliveredAfter: deliveredAfter,
		readAfter:      readAfter,
		timers:         make(map[string][]Timer),
	}
}

// Schedule queues the delivered and read transitions for a freshly persisted
// message. The timers outlive whichever view triggered the send; they are
// only torn down through Cancel or Close.
func (s *StatusScheduler) Schedule(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	delivered := s.clock.AfterFunc(s.deliveredAfter, func() {
		s.advance(messageID, models.StatusDelivered)
	})
	read := s.clock.AfterFunc(s.readAfter, func() {
		s.advance(messageID, models.StatusRead)
		s.forget(messageID)
	})
	s.timers[messageID] = []Timer{delivered, read}
}

// Cancel stops any pending transitions for the message.
func (s *StatusScheduler) Cancel(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, timer := range s.timers[messageID] {
		timer.Stop()
	}
	delete(s.timers, messageID)
}

// Close cancels every pending transition. Used on shutdown and in tests.
func (s *StatusScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, timers := range s.timers {
		for _, timer := range timers {
			timer.Stop()
		}
	}
	s.timers = make(map[string][]Timer)
}

func (s *StatusScheduler) advance(messageID string, status models.MessageStatus) {
	err := s.messages.UpdateStatus(context.Background(), messageID, status)
	if err != nil && !errors.Is(err, store.ErrStatusRegression) {
		log.Printf("status scheduler: update %s to %s: %v", messageID, status, err)
	}
}

func (s *StatusScheduler) forget(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, messageID)
}
