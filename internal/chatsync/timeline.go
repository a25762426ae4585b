package chatsync

import (
	"LykkeLoopAPI/internal/model"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Timeline is the local, deduplicated view of one conversation, kept in
// ascending CreatedAt order.
type Timeline struct {
	mu       sync.Mutex
	ids      map[uuid.UUID]struct{}
	messages []model.MessageResponse
}

func NewTimeline() *Timeline {
	return &Timeline{
		ids: make(map[uuid.UUID]struct{}),
	}
}

// Merge inserts every message whose id is not held yet and re-sorts. A known
// id is not inserted again; it only picks up a read_at the local copy lacks.
// It returns the messages that were actually inserted.
func (t *Timeline) Merge(msgs ...model.MessageResponse) []model.MessageResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	var inserted []model.MessageResponse
	for _, m := range msgs {
		if _, ok := t.ids[m.ID]; ok {
			if m.ReadAt != nil {
				t.fillReadAt(m.ID, *m.ReadAt)
			}
			continue
		}
		t.ids[m.ID] = struct{}{}
		t.messages = append(t.messages, m)
		inserted = append(inserted, m)
	}

	if len(inserted) > 0 {
		slices.SortStableFunc(t.messages, func(a, b model.MessageResponse) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return inserted
}

func (t *Timeline) fillReadAt(id uuid.UUID, readAt time.Time) {
	for i := range t.messages {
		if t.messages[i].ID == id {
			if t.messages[i].ReadAt == nil {
				t.messages[i].ReadAt = &readAt
			}
			return
		}
	}
}

// MarkRead stamps readAt on the unread messages authored by senderRole.
func (t *Timeline) MarkRead(senderRole string, readAt time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.messages {
		m := &t.messages[i]
		if m.SenderRole == senderRole && m.ReadAt == nil {
			at := readAt
			m.ReadAt = &at
			n++
		}
	}
	return n
}

func (t *Timeline) Has(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.ids[id]
	return ok
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.messages)
}

// Messages returns a copy of the current list.
func (t *Timeline) Messages() []model.MessageResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.messages)
}
