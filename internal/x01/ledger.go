package x01

import (
	"sort"
	"time"
)

// Ledger is the append-only record of throws for one game.
type Ledger struct {
	gameID int64
	darts  []Dart
}

func NewLedger(gameID int64) *Ledger {
	return &Ledger{gameID: gameID}
}

// LoadLedger rebuilds a ledger from stored throws. Throws of other games are ignored.
func LoadLedger(gameID int64, darts []Dart) *Ledger {
	l := NewLedger(gameID)
	for _, d := range darts {
		if d.GameID == gameID {
			l.darts = append(l.darts, d)
		}
	}
	SortDarts(l.darts)
	return l
}

// SortDarts orders throws by sequence, falling back to creation time for records without one.
func SortDarts(darts []Dart) {
	sort.SliceStable(darts, func(i, j int) bool {
		a, b := darts[i], darts[j]
		if a.Seq != b.Seq && a.Seq > 0 && b.Seq > 0 {
			return a.Seq < b.Seq
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (l *Ledger) GameID() int64 {
	return l.gameID
}

func (l *Ledger) Len() int {
	return len(l.darts)
}

// All returns a copy of every throw in ledger order.
func (l *Ledger) All() []Dart {
	out := make([]Dart, len(l.darts))
	copy(out, l.darts)
	return out
}

func (l *Ledger) Last() (Dart, bool) {
	if len(l.darts) == 0 {
		return Dart{}, false
	}
	return l.darts[len(l.darts)-1], true
}

// Append validates d against the game and roster and stores it with the next sequence number.
// CreatedAt is forced past the previous throw so timestamp ordering agrees with sequence ordering.
func (l *Ledger) Append(game Game, roster []Player, d Dart) (Dart, error) {
	if d.GameID != l.gameID || game.GameID != l.gameID {
		return Dart{}, invalidThrow("throw for game %d recorded in ledger of game %d", d.GameID, l.gameID)
	}
	switch game.Status {
	case StatusFinished:
		return Dart{}, staleGame("game %d is finished", game.GameID)
	case StatusQualifying:
		return Dart{}, invalidThrow("game %d has not started", game.GameID)
	}
	if !onRoster(roster, d.PlayerID) {
		return Dart{}, invalidThrow("player %s is not in game %d", d.PlayerID, game.GameID)
	}
	if d.GameScore < 0 {
		return Dart{}, invalidThrow("remaining score %d is negative", d.GameScore)
	}

	d.Seq = len(l.darts) + 1
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if last, ok := l.Last(); ok && !d.CreatedAt.After(last.CreatedAt) {
		d.CreatedAt = last.CreatedAt.Add(time.Nanosecond)
	}

	l.darts = append(l.darts, d)
	return d, nil
}

func onRoster(roster []Player, playerID string) bool {
	for _, p := range roster {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}
