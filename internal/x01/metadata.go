package x01

import (
	"strconv"

	"github.com/google/uuid"
)

// Metadata is the derived view of a game sent to every participant.
// Keys are PascalCase to stay compatible with existing clients.
type Metadata struct {
	Game              *GameSummary          `json:"Game"`
	Players           []PlayerSummary       `json:"Players"`
	Darts             map[string][]DartView `json:"Darts"`
	NextPlayer        *string               `json:"NextPlayer"`
	WinningPlayer     *string               `json:"WinningPlayer"`
	MeetingIdentifier *uuid.UUID            `json:"MeetingIdentifier,omitempty"`
}

type GameSummary struct {
	ID          string          `json:"Id"`
	PlayerCount int             `json:"PlayerCount"`
	Status      string          `json:"Status"`
	Type        string          `json:"Type"`
	X01         SettingsSummary `json:"X01"`
}

type SettingsSummary struct {
	DoubleIn      bool `json:"DoubleIn"`
	DoubleOut     bool `json:"DoubleOut"`
	Legs          int  `json:"Legs"`
	Sets          int  `json:"Sets"`
	StartingScore int  `json:"StartingScore"`
}

type PlayerSummary struct {
	PlayerID   string `json:"PlayerId"`
	PlayerName string `json:"PlayerName"`
	Country    string `json:"Country"`
	CreatedAt  string `json:"CreatedAt"`
	Sets       string `json:"Sets"`
	Legs       string `json:"Legs"`
}

type DartView struct {
	ID        string `json:"Id"`
	Score     int    `json:"Score"`
	GameScore int    `json:"GameScore"`
	Set       int    `json:"Set"`
	Leg       int    `json:"Leg"`
	CreatedAt int64  `json:"CreatedAt"`
}

func summarizeGame(g Game) *GameSummary {
	return &GameSummary{
		ID:          strconv.FormatInt(g.GameID, 10),
		PlayerCount: g.PlayerCount,
		Status:      g.Status.String(),
		Type:        "X01",
		X01: SettingsSummary{
			DoubleIn:      g.X01.DoubleIn,
			DoubleOut:     g.X01.DoubleOut,
			Legs:          g.X01.Legs,
			Sets:          g.X01.Sets,
			StartingScore: g.X01.StartingScore,
		},
	}
}

func viewDart(d Dart) DartView {
	return DartView{
		ID:        d.ID.String(),
		Score:     d.Score,
		GameScore: d.GameScore,
		Set:       d.Set,
		Leg:       d.Leg,
		CreatedAt: d.CreatedAt.UnixNano(),
	}
}
