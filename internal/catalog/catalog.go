// Package catalog holds the in-memory data package and the name
// indices derived from it, plus the cache coherence protocol that
// decides what to keep or refetch on every RoomInfo.
package catalog

import "apclient/internal/protocol"

// DataPackage is the running, merged mapping of game name to its
// item/location id<->name tables, plus the legacy top-level version
// field kept for pre-0.2 servers. Games accumulate in place: a
// DataPackage command merges into this rather than replacing it.
type DataPackage struct {
	Games   map[string]protocol.GameData
	Version int
}

// NewDataPackage returns an empty package with Version -1, matching
// the original client's un-fetched sentinel.
func NewDataPackage() *DataPackage {
	return &DataPackage{Games: map[string]protocol.GameData{}, Version: -1}
}

// Merge folds games into the running package, replacing any existing
// entry for the same game name.
func (dp *DataPackage) Merge(games map[string]protocol.GameData) {
	if dp.Games == nil {
		dp.Games = map[string]protocol.GameData{}
	}
	for name, data := range games {
		dp.Games[name] = data
	}
}

const unknownName = "Unknown"

// Catalog is the set of id->name indices rebuilt from a DataPackage.
// It is kept per game (so items belonging to another player's game
// resolve against that player's game, not the local client's own
// game) and also flattened into a global map for lookups where the
// owning game isn't known.
type Catalog struct {
	itemsByGame     map[string]map[int64]string
	locationsByGame map[string]map[int64]string
	itemsGlobal     map[int64]string
	locationsGlobal map[int64]string
}

func New() *Catalog {
	return &Catalog{
		itemsByGame:     map[string]map[int64]string{},
		locationsByGame: map[string]map[int64]string{},
		itemsGlobal:     map[int64]string{},
		locationsGlobal: map[int64]string{},
	}
}

// Rebuild replaces the indices with ones derived from dp. It is
// idempotent: calling it twice with the same package produces the
// same indices.
func (c *Catalog) Rebuild(dp *DataPackage) {
	c.itemsByGame = map[string]map[int64]string{}
	c.locationsByGame = map[string]map[int64]string{}
	c.itemsGlobal = map[int64]string{}
	c.locationsGlobal = map[int64]string{}

	for game, data := range dp.Games {
		items := make(map[int64]string, len(data.ItemNameToID))
		for name, id := range data.ItemNameToID {
			items[id] = name
			c.itemsGlobal[id] = name
		}
		c.itemsByGame[game] = items

		locations := make(map[int64]string, len(data.LocationNameToID))
		for name, id := range data.LocationNameToID {
			locations[id] = name
			c.locationsGlobal[id] = name
		}
		c.locationsByGame[game] = locations
	}
}

// ItemName resolves id against game's table, falling back to the
// global index and finally "Unknown".
func (c *Catalog) ItemName(id int64, game string) string {
	if byGame, ok := c.itemsByGame[game]; ok {
		if name, ok := byGame[id]; ok {
			return name
		}
	}
	if name, ok := c.itemsGlobal[id]; ok {
		return name
	}
	return unknownName
}

// LocationName resolves id against game's table, falling back to the
// global index and finally "Unknown".
func (c *Catalog) LocationName(id int64, game string) string {
	if byGame, ok := c.locationsByGame[game]; ok {
		if name, ok := byGame[id]; ok {
			return name
		}
	}
	if name, ok := c.locationsGlobal[id]; ok {
		return name
	}
	return unknownName
}
