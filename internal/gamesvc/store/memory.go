package store

import (
	"context"
	"sync"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/google/uuid"
)

type dartKey struct {
	gameID int64
	seq    int
}

// MemoryStore keeps everything in process. Used by tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	games   map[int64]x01.Game
	players map[int64][]x01.Player
	darts   map[int64][]x01.Dart
	seqs    map[dartKey]uuid.UUID
	users   map[string]x01.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[int64]x01.Game),
		players: make(map[int64][]x01.Player),
		darts:   make(map[int64][]x01.Dart),
		seqs:    make(map[dartKey]uuid.UUID),
		users:   make(map[string]x01.User),
	}
}

func (s *MemoryStore) ReadGame(_ context.Context, gameID int64) (x01.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return x01.Game{}, x01.ErrGameNotFound
	}
	return g, nil
}

func (s *MemoryStore) ReadGamePlayers(_ context.Context, gameID int64) ([]x01.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]x01.Player(nil), s.players[gameID]...), nil
}

func (s *MemoryStore) ReadGameDarts(_ context.Context, gameID int64) ([]x01.Dart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]x01.Dart(nil), s.darts[gameID]...), nil
}

func (s *MemoryStore) ReadPlayerGames(_ context.Context, playerID string) ([]x01.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []x01.Player
	for _, roster := range s.players {
		for _, p := range roster {
			if p.PlayerID == playerID {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) ReadUser(_ context.Context, userID string) (x01.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return x01.User{}, x01.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) ReadUsers(_ context.Context, userIDs []string) ([]x01.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]x01.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) ReadUserByAuthProviderID(_ context.Context, authProviderUserID string) (x01.User, error) {
	return s.findUser(func(u x01.User) bool { return u.AuthProviderUserID == authProviderUserID })
}

func (s *MemoryStore) ReadUserByConnectionID(_ context.Context, connectionID string) (x01.User, error) {
	if connectionID == "" {
		return x01.User{}, x01.ErrUserNotFound
	}
	return s.findUser(func(u x01.User) bool { return u.ConnectionID == connectionID })
}

func (s *MemoryStore) findUser(match func(x01.User) bool) (x01.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return x01.User{}, x01.ErrUserNotFound
}

// Write applies the batch atomically. A dart whose (game, seq) is held by another id fails the whole batch.
func (s *MemoryStore) Write(_ context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []x01.Dart
	batch := make(map[dartKey]uuid.UUID, len(b.Darts))
	for _, d := range b.Darts {
		k := dartKey{d.GameID, d.Seq}
		id, ok := s.seqs[k]
		if !ok {
			id, ok = batch[k]
		}
		if ok {
			if id != d.ID {
				return x01.ErrStaleGame
			}
			continue
		}
		batch[k] = d.ID
		fresh = append(fresh, d)
	}

	for _, g := range b.Games {
		if old, ok := s.games[g.GameID]; ok && old.Status > g.Status {
			g.Status = old.Status
		}
		s.games[g.GameID] = g
	}
	for _, p := range b.Players {
		s.upsertPlayer(p)
	}
	for _, d := range fresh {
		s.seqs[dartKey{d.GameID, d.Seq}] = d.ID
		s.darts[d.GameID] = append(s.darts[d.GameID], d)
	}
	for _, u := range b.Users {
		s.users[u.UserID] = u
	}
	return nil
}

func (s *MemoryStore) upsertPlayer(p x01.Player) {
	roster := s.players[p.GameID]
	for i := range roster {
		if roster[i].PlayerID == p.PlayerID {
			roster[i] = p
			return
		}
	}
	s.players[p.GameID] = append(roster, p)
}
