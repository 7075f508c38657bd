package x01

import (
	"sort"
	"strconv"
	"strings"
)

// Standing is a player's derived match position.
type Standing struct {
	PlayerID string
	// SetsWon counts sets taken by a majority of legs.
	SetsWon int
	// LegsWon counts every leg checked out across the match.
	LegsWon int
	// SetLegs counts legs won in the current set; zero once that set has been decided.
	SetLegs int
}

// Calculate derives the full metadata for a game. It never mutates its inputs.
func Calculate(game Game, players []Player, users []User, darts []Dart) Metadata {
	roster := JoinOrder(players)
	ledger := sortedCopy(darts)
	standings := Standings(game.X01, roster, ledger)

	md := Metadata{
		Game:              summarizeGame(game),
		Players:           summarizePlayers(roster, users, standings),
		Darts:             visibleDarts(roster, ledger),
		MeetingIdentifier: game.MeetingIdentifier,
	}

	if winner, ok := Winner(game.X01, roster, ledger); ok {
		md.WinningPlayer = &winner
		return md
	}
	if next, ok := NextPlayer(roster, ledger); ok {
		md.NextPlayer = &next
	}
	return md
}

// JoinOrder returns players sorted by join time, then id.
func JoinOrder(players []Player) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// Standings computes legs and sets for every player in roster order.
func Standings(settings Settings, roster []Player, darts []Dart) []Standing {
	out := make([]Standing, len(roster))
	index := make(map[string]int, len(roster))
	for i, p := range roster {
		out[i].PlayerID = p.PlayerID
		index[p.PlayerID] = i
	}
	if len(darts) == 0 {
		return out
	}

	sets := legWinsBySet(darts)
	currentSet := 0
	for _, d := range darts {
		if d.Set > currentSet {
			currentSet = d.Set
		}
	}

	need := settings.LegsToWinSet()
	currentDecided := false
	for set, wins := range sets {
		for playerID, n := range wins {
			i, ok := index[playerID]
			if !ok {
				continue
			}
			out[i].LegsWon += n
			if n >= need {
				out[i].SetsWon++
				if set == currentSet {
					currentDecided = true
				}
			} else if set == currentSet {
				out[i].SetLegs = n
			}
		}
	}
	if currentDecided {
		for i := range out {
			out[i].SetLegs = 0
		}
	}
	return out
}

// legWinsBySet maps set -> player -> legs won. The first checkout in a leg wins it.
func legWinsBySet(darts []Dart) map[int]map[string]int {
	type legKey struct{ set, leg int }
	decided := make(map[legKey]bool)
	out := make(map[int]map[string]int)

	for _, d := range darts {
		if !d.IsCheckout() {
			continue
		}
		k := legKey{d.Set, d.Leg}
		if decided[k] {
			continue
		}
		decided[k] = true
		if out[d.Set] == nil {
			out[d.Set] = make(map[string]int)
		}
		out[d.Set][d.PlayerID]++
	}
	return out
}

// Winner returns the first player in join order holding enough sets.
func Winner(settings Settings, roster []Player, darts []Dart) (string, bool) {
	if len(darts) == 0 {
		return "", false
	}
	need := settings.SetsToWinMatch()
	for _, s := range Standings(settings, roster, darts) {
		if s.SetsWon >= need {
			return s.PlayerID, true
		}
	}
	return "", false
}

// NextPlayer picks the player with the fewest throws in the leg in progress. Ties go to the first joined.
func NextPlayer(roster []Player, darts []Dart) (string, bool) {
	if len(roster) < 2 {
		return "", false
	}
	if len(darts) == 0 {
		return roster[0].PlayerID, true
	}

	counts := make(map[string]int, len(roster))
	for _, d := range visible(darts) {
		counts[d.PlayerID]++
	}

	next := roster[0].PlayerID
	for _, p := range roster[1:] {
		if counts[p.PlayerID] < counts[next] {
			next = p.PlayerID
		}
	}
	return next, true
}

// Position returns the set and leg the next throw belongs to.
func Position(settings Settings, darts []Dart) (set, leg int) {
	set, leg = 1, 1
	need := settings.LegsToWinSet()
	wins := make(map[string]int)

	for _, d := range sortedCopy(darts) {
		if !d.IsCheckout() || d.Set != set || d.Leg != leg {
			continue
		}
		wins[d.PlayerID]++
		if wins[d.PlayerID] >= need {
			set++
			leg = 1
			wins = make(map[string]int)
		} else {
			leg++
		}
	}
	return set, leg
}

// Remaining returns what playerID still needs in the leg the next throw belongs to.
func Remaining(settings Settings, darts []Dart, playerID string) int {
	set, leg := Position(settings, darts)
	remaining := settings.StartingScore
	for _, d := range sortedCopy(darts) {
		if d.PlayerID == playerID && d.Set == set && d.Leg == leg {
			remaining = d.GameScore
		}
	}
	return remaining
}

// visible drops everything up to and including the most recent checkout.
func visible(darts []Dart) []Dart {
	cut := -1
	for i, d := range darts {
		if d.IsCheckout() {
			cut = i
		}
	}
	return darts[cut+1:]
}

func visibleDarts(roster []Player, darts []Dart) map[string][]DartView {
	out := make(map[string][]DartView, len(roster))
	for _, p := range roster {
		out[p.PlayerID] = []DartView{}
	}
	for _, d := range visible(darts) {
		if _, ok := out[d.PlayerID]; !ok {
			continue
		}
		out[d.PlayerID] = append(out[d.PlayerID], viewDart(d))
	}
	return out
}

func summarizePlayers(roster []Player, users []User, standings []Standing) []PlayerSummary {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	out := make([]PlayerSummary, 0, len(roster))
	for i, p := range roster {
		name, country := "Unknown", "unknown"
		if u, ok := byID[p.PlayerID]; ok {
			if u.Profile.UserName != "" {
				name = u.Profile.UserName
			}
			if u.Profile.Country != "" {
				country = strings.ToLower(u.Profile.Country)
			}
		}
		out = append(out, PlayerSummary{
			PlayerID:   p.PlayerID,
			PlayerName: name,
			Country:    country,
			CreatedAt:  strconv.FormatInt(p.CreatedAt.UnixNano(), 10),
			Sets:       strconv.Itoa(standings[i].SetsWon),
			Legs:       strconv.Itoa(standings[i].SetLegs),
		})
	}
	return out
}

func sortedCopy(darts []Dart) []Dart {
	out := make([]Dart, len(darts))
	copy(out, darts)
	SortDarts(out)
	return out
}
