package matchmaking

import (
	"time"

	"github.com/avvvet/darts-services/internal/x01"
)

// Entry is one player waiting for an opponent.
type Entry struct {
	PlayerID     string       `json:"player_id" bson:"_id"`
	ConnectionID string       `json:"connection_id" bson:"connection_id"`
	Average      int          `json:"average" bson:"average"`
	X01          x01.Settings `json:"x01" bson:"x01"`
	Joined       time.Time    `json:"joined" bson:"joined"`
}

// Pair is a match: Host waited first and its settings are used for the game.
type Pair struct {
	Host  Entry
	Guest Entry
}

func (p Pair) Entries() []Entry {
	return []Entry{p.Host, p.Guest}
}

func (p Pair) PlayerIDs() []string {
	return []string{p.Host.PlayerID, p.Guest.PlayerID}
}
