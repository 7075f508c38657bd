package dynamo

import (
	"fmt"
	"time"

	"github.com/avvvet/darts-services/internal/x01"
	"github.com/google/uuid"
)

type gameRecord struct {
	PK                string    `dynamodbav:"PK"`
	SK                string    `dynamodbav:"SK"`
	GameID            int64     `dynamodbav:"GameId"`
	PlayerCount       int       `dynamodbav:"PlayerCount"`
	Status            int       `dynamodbav:"Status"`
	Sets              int       `dynamodbav:"Sets"`
	Legs              int       `dynamodbav:"Legs"`
	StartingScore     int       `dynamodbav:"StartingScore"`
	DoubleIn          bool      `dynamodbav:"DoubleIn"`
	DoubleOut         bool      `dynamodbav:"DoubleOut"`
	MeetingIdentifier string    `dynamodbav:"MeetingIdentifier,omitempty"`
	CreatedAt         time.Time `dynamodbav:"CreatedAt"`
}

func newGameRecord(g x01.Game) gameRecord {
	rec := gameRecord{
		PK:            gameKey(g.GameID),
		SK:            "GAME",
		GameID:        g.GameID,
		PlayerCount:   g.PlayerCount,
		Status:        int(g.Status),
		Sets:          g.X01.Sets,
		Legs:          g.X01.Legs,
		StartingScore: g.X01.StartingScore,
		DoubleIn:      g.X01.DoubleIn,
		DoubleOut:     g.X01.DoubleOut,
		CreatedAt:     g.CreatedAt,
	}
	if g.MeetingIdentifier != nil {
		rec.MeetingIdentifier = g.MeetingIdentifier.String()
	}
	return rec
}

func (r gameRecord) game() (x01.Game, error) {
	g := x01.Game{
		GameID:      r.GameID,
		PlayerCount: r.PlayerCount,
		Status:      x01.Status(r.Status),
		X01: x01.Settings{
			Sets:          r.Sets,
			Legs:          r.Legs,
			StartingScore: r.StartingScore,
			DoubleIn:      r.DoubleIn,
			DoubleOut:     r.DoubleOut,
		},
		CreatedAt: r.CreatedAt,
	}
	if r.MeetingIdentifier != "" {
		id, err := uuid.Parse(r.MeetingIdentifier)
		if err != nil {
			return x01.Game{}, fmt.Errorf("game %d has a malformed meeting identifier: %w", r.GameID, err)
		}
		g.MeetingIdentifier = &id
	}
	return g, nil
}

type playerRecord struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	GSI1PK    string    `dynamodbav:"GSI1PK"`
	GameID    int64     `dynamodbav:"GameId"`
	PlayerID  string    `dynamodbav:"PlayerId"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}

func newPlayerRecord(p x01.Player) playerRecord {
	return playerRecord{
		PK:        gameKey(p.GameID),
		SK:        playerKey(p.PlayerID),
		GSI1PK:    playerKey(p.PlayerID),
		GameID:    p.GameID,
		PlayerID:  p.PlayerID,
		CreatedAt: p.CreatedAt,
	}
}

func (r playerRecord) player() x01.Player {
	return x01.Player{GameID: r.GameID, PlayerID: r.PlayerID, CreatedAt: r.CreatedAt}
}

type dartRecord struct {
	PK        string    `dynamodbav:"PK"`
	SK        string    `dynamodbav:"SK"`
	ID        string    `dynamodbav:"Id"`
	GameID    int64     `dynamodbav:"GameId"`
	PlayerID  string    `dynamodbav:"PlayerId"`
	Score     int       `dynamodbav:"Score"`
	GameScore int       `dynamodbav:"GameScore"`
	Set       int       `dynamodbav:"Set"`
	Leg       int       `dynamodbav:"Leg"`
	Seq       int       `dynamodbav:"Seq"`
	Bust      bool      `dynamodbav:"Bust"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}

func newDartRecord(d x01.Dart) dartRecord {
	return dartRecord{
		PK:        gameKey(d.GameID),
		SK:        dartKey(d.Seq),
		ID:        d.ID.String(),
		GameID:    d.GameID,
		PlayerID:  d.PlayerID,
		Score:     d.Score,
		GameScore: d.GameScore,
		Set:       d.Set,
		Leg:       d.Leg,
		Seq:       d.Seq,
		Bust:      d.Bust,
		CreatedAt: d.CreatedAt,
	}
}

func (r dartRecord) dart() (x01.Dart, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return x01.Dart{}, fmt.Errorf("dart %s/%s has a malformed id: %w", r.PK, r.SK, err)
	}
	return x01.Dart{
		ID:        id,
		GameID:    r.GameID,
		PlayerID:  r.PlayerID,
		Score:     r.Score,
		GameScore: r.GameScore,
		Set:       r.Set,
		Leg:       r.Leg,
		Seq:       r.Seq,
		Bust:      r.Bust,
		CreatedAt: r.CreatedAt,
	}, nil
}

type userRecord struct {
	PK                 string    `dynamodbav:"PK"`
	SK                 string    `dynamodbav:"SK"`
	UserID             string    `dynamodbav:"UserId"`
	AuthProviderUserID string    `dynamodbav:"AuthProviderUserId"`
	ConnectionID       string    `dynamodbav:"ConnectionId"`
	UserName           string    `dynamodbav:"UserName"`
	Country            string    `dynamodbav:"Country"`
	CreatedAt          time.Time `dynamodbav:"CreatedAt"`
}

func newUserRecord(u x01.User) userRecord {
	return userRecord{
		PK:                 userKey(u.UserID),
		SK:                 "USER",
		UserID:             u.UserID,
		AuthProviderUserID: u.AuthProviderUserID,
		ConnectionID:       u.ConnectionID,
		UserName:           u.Profile.UserName,
		Country:            u.Profile.Country,
		CreatedAt:          u.CreatedAt,
	}
}

func (r userRecord) user() x01.User {
	return x01.User{
		UserID:             r.UserID,
		AuthProviderUserID: r.AuthProviderUserID,
		ConnectionID:       r.ConnectionID,
		Profile:            x01.Profile{UserName: r.UserName, Country: r.Country},
		CreatedAt:          r.CreatedAt,
	}
}
