package x01

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status int

const (
	StatusQualifying Status = iota
	StatusStarted
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusQualifying:
		return "Qualifying"
	case StatusStarted:
		return "Started"
	case StatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Settings are the match rules a game is played under.
type Settings struct {
	Sets          int  `json:"sets"`
	Legs          int  `json:"legs"`
	StartingScore int  `json:"starting_score"`
	DoubleIn      bool `json:"double_in"`
	DoubleOut     bool `json:"double_out"`
}

// DefaultSettings mirrors the standard 501 double-out game.
func DefaultSettings(sets, legs int) Settings {
	return Settings{
		Sets:          sets,
		Legs:          legs,
		StartingScore: 501,
		DoubleOut:     true,
	}
}

// LegsToWinSet is the majority of legs needed to take a set.
func (s Settings) LegsToWinSet() int {
	return s.Legs/2 + 1
}

// SetsToWinMatch is the number of sets needed to take the match.
func (s Settings) SetsToWinMatch() int {
	return (s.Sets + 1) / 2
}

type Game struct {
	GameID            int64      `json:"game_id"`
	PlayerCount       int        `json:"player_count"`
	Status            Status     `json:"status"`
	X01               Settings   `json:"x01"`
	MeetingIdentifier *uuid.UUID `json:"meeting_identifier,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewGame creates a Qualifying game with a fresh time ordered id.
func NewGame(playerCount int, settings Settings, meeting *uuid.UUID) Game {
	id := NextGameID()
	return Game{
		GameID:            id,
		PlayerCount:       playerCount,
		Status:            StatusQualifying,
		X01:               settings,
		MeetingIdentifier: meeting,
		CreatedAt:         time.Unix(0, id).UTC(),
	}
}

// Advance moves the game forward to status. Moving backwards or sideways is refused.
func (g *Game) Advance(status Status) bool {
	if status <= g.Status {
		return false
	}
	g.Status = status
	return true
}

type Player struct {
	GameID    int64     `json:"game_id"`
	PlayerID  string    `json:"player_id"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinPrecision is the resolution join times are stored at. Postgres keeps microseconds.
const JoinPrecision = time.Microsecond

func NewPlayer(gameID int64, playerID string) Player {
	return Player{
		GameID:    gameID,
		PlayerID:  playerID,
		CreatedAt: time.Now().UTC().Truncate(JoinPrecision),
	}
}

// Dart is one recorded visit to the board. Score is the raw input, GameScore the remaining score after it.
type Dart struct {
	ID        uuid.UUID `json:"id"`
	GameID    int64     `json:"game_id"`
	PlayerID  string    `json:"player_id"`
	Score     int       `json:"score"`
	GameScore int       `json:"game_score"`
	Set       int       `json:"set"`
	Leg       int       `json:"leg"`
	Seq       int       `json:"seq"`
	Bust      bool      `json:"bust"`
	CreatedAt time.Time `json:"created_at"`
}

func (d Dart) IsCheckout() bool {
	return d.GameScore == 0
}

type Profile struct {
	UserName string `json:"user_name"`
	Country  string `json:"country"`
}

type User struct {
	UserID             string    `json:"user_id"`
	AuthProviderUserID string    `json:"auth_provider_user_id"`
	ConnectionID       string    `json:"connection_id"`
	Profile            Profile   `json:"profile"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewUser(authProviderUserID, connectionID string, profile Profile) User {
	now := time.Now().UTC()
	return User{
		UserID:             NextUserID(now),
		AuthProviderUserID: authProviderUserID,
		ConnectionID:       connectionID,
		Profile:            profile,
		CreatedAt:          now,
	}
}

func (u User) Online() bool {
	return u.ConnectionID != ""
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NextGameID returns the current UTC time in nanoseconds, bumped so that ids never repeat in this process.
func NextGameID() int64 {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UTC().UnixNano()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// NextUserID derives a user id from its creation time, unique within the process.
func NextUserID(now time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	id := now.UnixNano()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}

const maxSetsOrLegs = 99

// NewSettings validates a requested sets/legs combination and applies the 501 double-out defaults.
func NewSettings(sets, legs int) (Settings, error) {
	if sets < 1 || sets > maxSetsOrLegs || legs < 1 || legs > maxSetsOrLegs {
		return Settings{}, invalidRequest("sets %d and legs %d must be between 1 and %d", sets, legs, maxSetsOrLegs)
	}
	return DefaultSettings(sets, legs), nil
}

// ParseGameID reads a game id sent as a decimal string.
func ParseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidRequest("malformed game id %q", s)
	}
	return id, nil
}
