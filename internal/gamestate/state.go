package gamestate

import (
	"github.com/avvvet/darts-services/internal/x01"
)

// State is the aggregate one action works on: the game header, its roster, the
// roster's users and the throw ledger. It is not safe for concurrent use.
type State struct {
	Game    x01.Game
	Players []x01.Player
	Users   []x01.User

	ledger     *x01.Ledger
	persisted  int
	dirtyUsers map[string]bool
}

func newState(game x01.Game, players []x01.Player, users []x01.User, darts []x01.Dart) *State {
	ledger := x01.LoadLedger(game.GameID, darts)
	return &State{
		Game:       game,
		Players:    players,
		Users:      users,
		ledger:     ledger,
		persisted:  ledger.Len(),
		dirtyUsers: make(map[string]bool),
	}
}

// AddGame replaces the header. Status only moves forward.
func (s *State) AddGame(g x01.Game) {
	status := s.Game.Status
	s.Game = g
	if g.Status < status {
		s.Game.Status = status
	}
}

// AddPlayer adds p to the roster once, seated strictly after everyone already on it
// at store precision. It reports whether p was new.
func (s *State) AddPlayer(p x01.Player) bool {
	if s.HasPlayer(p.PlayerID) {
		return false
	}
	p.GameID = s.Game.GameID
	p.CreatedAt = p.CreatedAt.Truncate(x01.JoinPrecision)
	for _, seated := range s.Players {
		if !p.CreatedAt.After(seated.CreatedAt) {
			p.CreatedAt = seated.CreatedAt.Truncate(x01.JoinPrecision).Add(x01.JoinPrecision)
		}
	}
	s.Players = append(s.Players, p)
	return true
}

func (s *State) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// AddUser stores u, replacing an earlier copy with the same id, and marks it for saving.
func (s *State) AddUser(u x01.User) {
	s.dirtyUsers[u.UserID] = true
	for i := range s.Users {
		if s.Users[i].UserID == u.UserID {
			s.Users[i] = u
			return
		}
	}
	s.Users = append(s.Users, u)
}

// User returns the loaded copy of userID.
func (s *State) User(userID string) (x01.User, bool) {
	for _, u := range s.Users {
		if u.UserID == userID {
			return u, true
		}
	}
	return x01.User{}, false
}

// AddDart appends d to the ledger.
func (s *State) AddDart(d x01.Dart) (x01.Dart, error) {
	d.GameID = s.Game.GameID
	return s.ledger.Append(s.Game, s.Players, d)
}

// Darts returns every throw in ledger order.
func (s *State) Darts() []x01.Dart {
	return s.ledger.All()
}

// Metadata derives the current view of the game.
func (s *State) Metadata() x01.Metadata {
	return x01.Calculate(s.Game, s.Players, s.Users, s.ledger.All())
}

// ConnectionIDs lists the live connections of the roster in join order.
func (s *State) ConnectionIDs() []string {
	var out []string
	for _, p := range x01.JoinOrder(s.Players) {
		if u, ok := s.User(p.PlayerID); ok && u.Online() {
			out = append(out, u.ConnectionID)
		}
	}
	return out
}

func (s *State) pendingDarts() []x01.Dart {
	all := s.ledger.All()
	return all[s.persisted:]
}

func (s *State) pendingUsers() []x01.User {
	var out []x01.User
	for _, u := range s.Users {
		if s.dirtyUsers[u.UserID] {
			out = append(out, u)
		}
	}
	return out
}

func (s *State) markSaved() {
	s.persisted = s.ledger.Len()
	s.dirtyUsers = make(map[string]bool)
}
