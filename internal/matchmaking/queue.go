package matchmaking

import (
	"context"
	"sort"
	"sync"
)

// QueueStore holds waiting players keyed by player id. Adding a player again replaces the entry.
// Remove deletes a player's entry only if it joined no later than the given one, so a player
// who queued again after the batch was read keeps their new entry.
type QueueStore interface {
	Add(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Remove(ctx context.Context, entries []Entry) error
}

type MemoryQueue struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{entries: make(map[string]Entry)}
}

func (q *MemoryQueue) Add(_ context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[e.PlayerID] = e
	return nil
}

func (q *MemoryQueue) List(_ context.Context) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Joined.Before(out[j].Joined) })
	return out, nil
}

func (q *MemoryQueue) Remove(_ context.Context, entries []Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		if cur, ok := q.entries[e.PlayerID]; ok && !cur.Joined.After(e.Joined) {
			delete(q.entries, e.PlayerID)
		}
	}
	return nil
}
