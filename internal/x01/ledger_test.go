package x01

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAppendRejects(t *testing.T) {
	roster := []Player{{GameID: 7, PlayerID: "p1"}, {GameID: 7, PlayerID: "p2"}}
	started := Game{GameID: 7, Status: StatusStarted}
	dart := Dart{ID: uuid.New(), GameID: 7, PlayerID: "p1", Score: 60, GameScore: 441, Set: 1, Leg: 1}

	tests := []struct {
		name string
		game Game
		dart func(Dart) Dart
		err  error
	}{
		{"finished game", Game{GameID: 7, Status: StatusFinished}, nil, ErrStaleGame},
		{"qualifying game", Game{GameID: 7, Status: StatusQualifying}, nil, ErrInvalidThrow},
		{"other game", Game{GameID: 8, Status: StatusStarted}, nil, ErrInvalidThrow},
		{"unknown player", started, func(d Dart) Dart { d.PlayerID = "p3"; return d }, ErrInvalidThrow},
		{"negative score", started, func(d Dart) Dart { d.GameScore = -1; return d }, ErrInvalidThrow},
		{"wrong game id on throw", started, func(d Dart) Dart { d.GameID = 9; return d }, ErrInvalidThrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(7)
			d := dart
			if tt.dart != nil {
				d = tt.dart(d)
			}
			_, err := l.Append(tt.game, roster, d)
			require.ErrorIs(t, err, tt.err)
			assert.Zero(t, l.Len())
		})
	}
}

func TestLedgerAppendOrdersThrows(t *testing.T) {
	roster := []Player{{GameID: 7, PlayerID: "p1"}, {GameID: 7, PlayerID: "p2"}}
	game := Game{GameID: 7, Status: StatusStarted}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l := NewLedger(7)
	for i, p := range []string{"p1", "p2", "p1"} {
		d, err := l.Append(game, roster, Dart{ID: uuid.New(), GameID: 7, PlayerID: p, Score: 20, GameScore: 481, CreatedAt: at})
		require.NoError(t, err)
		assert.Equal(t, i+1, d.Seq)
	}

	all := l.All()
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	// mutating the copy leaves the ledger alone
	all[0].Score = 99
	assert.Equal(t, 20, l.All()[0].Score)
}

func TestLoadLedgerSortsAndFilters(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := []Dart{
		{GameID: 7, PlayerID: "p2", Seq: 2, CreatedAt: at.Add(2)},
		{GameID: 8, PlayerID: "x", Seq: 1, CreatedAt: at},
		{GameID: 7, PlayerID: "p1", Seq: 1, CreatedAt: at.Add(1)},
		{GameID: 7, PlayerID: "p1", Seq: 3, CreatedAt: at.Add(3)},
	}

	l := LoadLedger(7, stored)
	require.Equal(t, 3, l.Len())
	all := l.All()
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].Seq, all[1].Seq, all[2].Seq})

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, 3, last.Seq)
}
