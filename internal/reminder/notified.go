package reminder

import "sync"

// NotifiedSet помнит задачи, по которым напоминание уже ушло, чтобы не слать
// повторно в том же окне. Вместе с id хранится due_at - по нему старые записи
// выселяются, и набор не растет бесконечно.
type NotifiedSet struct {
	mu   sync.Mutex
	sent map[string]int64 // id задачи -> due_at (ms)
}

func NewNotifiedSet() *NotifiedSet {
	return &NotifiedSet{sent: make(map[string]int64)}
}

func (n *NotifiedSet) AlreadySent(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.sent[id]
	return ok
}

func (n *NotifiedSet) MarkSent(id string, dueAt int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[id] = dueAt
}

// EvictBefore удаляет записи с due_at раньше cutoff
func (n *NotifiedSet) EvictBefore(cutoff int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, dueAt := range n.sent {
		if dueAt < cutoff {
			delete(n.sent, id)
		}
	}
}

func (n *NotifiedSet) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *NotifiedSet) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = make(map[string]int64)
}
