package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notice is a dismissible message shown to the user
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type noticeBoard struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *noticeBoard) add(msg string, at time.Time) Notice {
	n := Notice{ID: uuid.NewString(), Message: msg, CreatedAt: at}
	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()
	return n
}

func (b *noticeBoard) list() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice{}, b.notices...)
}

func (b *noticeBoard) dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return true
		}
	}
	return false
}

func (b *noticeBoard) clear() {
	b.mu.Lock()
	b.notices = nil
	b.mu.Unlock()
}
