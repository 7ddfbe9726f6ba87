package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

// MessageFeed notifies a subscriber whenever a conversation's messages should
// be refreshed. The default implementation polls; a push-based implementation
// can be swapped in without changing callers.
type MessageFeed interface {
	Subscribe(conversationID string, fn func([]models.Message)) Subscription
}

type Subscription interface {
	Stop()
}

// PollingFeed re-reads the full message list on a fixed interval and hands it
// to the subscriber wholesale. No diffing and no backoff: replacement by id is
// naturally idempotent, matching the original client's two second poll.
type PollingFeed struct {
	messages store.MessageStore
	interval time.Duration
}

func NewPollingFeed(messages store.MessageStore, interval time.Duration) *PollingFeed {
	return &PollingFeed{messages: messages, interval: interval}
}

func (f *PollingFeed) Subscribe(conversationID string, fn func([]models.Message)) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &pollSubscription{cancel: cancel}

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				messages, err := f.messages.ListByConversation(ctx, conversationID)
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("message feed: poll %s: %v", conversationID, err)
					}
					continue
				}
				fn(messages)
			}
		}
	}()

	return sub
}

type pollSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (s *pollSubscription) Stop() {
	s.once.Do(s.cancel)
}
