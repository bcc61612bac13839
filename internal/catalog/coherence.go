package catalog

import (
	"sort"

	"apclient/internal/protocol"
	"apclient/internal/store"
)

// CoherenceResult is the outcome of running CacheCoherence against one
// RoomInfo command.
type CoherenceResult struct {
	// Valid is true when every played game was already acceptable in
	// cache and no GetDataPackage needs to be sent.
	Valid bool
	// NeedFetch lists the games (sorted) that must be requested via
	// GetDataPackage.
	NeedFetch []string
	// FetchAll is set for the ancient scalar-schema case, where the
	// room carries no per-game list at all: the whole package is
	// invalidated and an unfiltered GetDataPackage (no games filter)
	// must be sent to refetch everything played.
	FetchAll bool
}

// Resolve runs the decision procedure of the cache coherence protocol
// against one RoomInfo command, accepting cached payloads into dp/cat
// as it goes so that partial validity is visible immediately, even
// before any outstanding fetch completes.
func Resolve(room protocol.RoomInfoCmd, st store.DataPackageStore, dp *DataPackage, cat *Catalog) CoherenceResult {
	playedGames, ancient := playedGamesOf(room)
	if ancient {
		dp.Version = -1
		cat.Rebuild(dp)
		return CoherenceResult{Valid: false, FetchAll: true}
	}

	accepted := false
	var needFetch []string
	for _, game := range playedGames {
		remoteChecksum := room.DataPackageChecksums[game]
		remoteVersion := room.DataPackageVersions[game]

		switch {
		case remoteChecksum != "":
			data, ok := st.Load(game, remoteChecksum)
			if ok && data.Checksum == remoteChecksum {
				dp.Merge(map[string]protocol.GameData{game: data})
				accepted = true
				continue
			}
			needFetch = append(needFetch, game)

		case remoteVersion != 0:
			data, ok := st.Load(game, "")
			if ok && data.Version == remoteVersion {
				dp.Merge(map[string]protocol.GameData{game: data})
				accepted = true
				continue
			}
			needFetch = append(needFetch, game)

		default:
			needFetch = append(needFetch, game)
		}
	}

	if accepted {
		cat.Rebuild(dp)
	}

	sort.Strings(needFetch)
	return CoherenceResult{Valid: len(needFetch) == 0, NeedFetch: needFetch}
}

// playedGamesOf determines the set of games in play for this room,
// per the three server eras the protocol has gone through. When the
// room carries a games list, "Archipelago" is added to it whenever the
// server lists a checksum or version for it. The bool return reports
// the "ancient" scalar-version fallback, where no individual game list
// is known at all and the whole package must be treated as
// unresolvable from cache.
func playedGamesOf(room protocol.RoomInfoCmd) (games []string, ancient bool) {
	seen := map[string]bool{}
	add := func(g string) {
		if !seen[g] {
			seen[g] = true
			games = append(games, g)
		}
	}

	switch {
	case room.Games != nil:
		for _, g := range room.Games {
			add(g)
		}
		_, hasChecksum := room.DataPackageChecksums["Archipelago"]
		_, hasVersion := room.DataPackageVersions["Archipelago"]
		if hasChecksum || hasVersion {
			add("Archipelago")
		}
	case room.DataPackageVersions != nil:
		for g := range room.DataPackageVersions {
			add(g)
		}
		add("Archipelago")
	default:
		return nil, true
	}

	sort.Strings(games)
	return games, false
}

// BatchForFetch groups games into pairs (and one trailing singleton
// if the count is odd) to amortize compression windows, per the
// GetDataPackage batching rule.
func BatchForFetch(games []string) [][]string {
	var batches [][]string
	for i := 0; i < len(games); i += 2 {
		end := i + 2
		if end > len(games) {
			end = len(games)
		}
		batches = append(batches, append([]string(nil), games[i:end]...))
	}
	return batches
}
