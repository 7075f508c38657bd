package matchmaking

import (
	"sort"
)

// Match pairs a batch of queue entries. Entries are taken in join order; each arrival is
// paired with the earliest unmatched entry of another player the policy accepts.
// When a player appears more than once only the newest entry counts.
func Match(batch []Entry, policy Policy) []Pair {
	entries := latestPerPlayer(batch)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Joined.Before(entries[j].Joined)
	})

	matched := make([]bool, len(entries))
	var pairs []Pair
	for i := range entries {
		if matched[i] {
			continue
		}
		for j := 0; j < i; j++ {
			if matched[j] || entries[j].PlayerID == entries[i].PlayerID {
				continue
			}
			if policy.Compatible(entries[j], entries[i]) {
				matched[i], matched[j] = true, true
				pairs = append(pairs, Pair{Host: entries[j], Guest: entries[i]})
				break
			}
		}
	}
	return pairs
}

func latestPerPlayer(batch []Entry) []Entry {
	index := make(map[string]int, len(batch))
	var out []Entry
	for _, e := range batch {
		if i, ok := index[e.PlayerID]; ok {
			if e.Joined.After(out[i].Joined) {
				out[i] = e
			}
			continue
		}
		index[e.PlayerID] = len(out)
		out = append(out, e)
	}
	return out
}
