package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// lanes chains the handlers of one sender: each waits for the one entered
// before it. enter must be called from a single goroutine, in update order.
type lanes struct {
	mu   sync.Mutex
	tail map[int64]chan struct{}
}

func newLanes() *lanes {
	return &lanes{tail: make(map[int64]chan struct{})}
}

// enter returns the channel to wait on before handling (nil when the lane is
// idle) and the func to call once handling is finished.
func (l *lanes) enter(key int64) (wait <-chan struct{}, done func()) {
	cur := make(chan struct{})

	l.mu.Lock()
	if prev, ok := l.tail[key]; ok {
		wait = prev
	}
	l.tail[key] = cur
	l.mu.Unlock()

	return wait, func() {
		close(cur)
		l.mu.Lock()
		if l.tail[key] == cur {
			delete(l.tail, key)
		}
		l.mu.Unlock()
	}
}

func (l *lanes) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tail)
}

// senderID keys an update by the user who sent it. Updates without a sender
// share lane 0; Convert drops them anyway.
func senderID(u tgbotapi.Update) int64 {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	}
	return 0
}
