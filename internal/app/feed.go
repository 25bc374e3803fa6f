package app

import (
	"sync"

	"quiz-service/internal/domain"
)

// ActivityFeed fans committed activity entries out to live subscribers of the same user.
type ActivityFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Activity]struct{}
}

func NewActivityFeed() *ActivityFeed {
	return &ActivityFeed{subscribers: make(map[string]map[chan domain.Activity]struct{})}
}

// Subscribe returns a channel that receives the user's new activity.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *ActivityFeed) Subscribe(userID string) (<-chan domain.Activity, func()) {
	ch := make(chan domain.Activity, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.Activity]struct{})
		f.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[userID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(f.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish must only be called with entries that have been committed.
func (f *ActivityFeed) Publish(activities ...domain.Activity) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, activity := range activities {
		for ch := range f.subscribers[activity.UserID] {
			select {
			case ch <- activity:
			default:
				// slow subscriber: drop its oldest entry
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- activity:
				default:
				}
			}
		}
	}
}
