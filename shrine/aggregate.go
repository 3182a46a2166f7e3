// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"sort"
)

// LeaderboardSize caps each ranked list.
const LeaderboardSize = 10

// RankEntry is one row of a leaderboard.
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Leaderboards holds the ranked submitter and place lists.
type Leaderboards struct {
	ByName []RankEntry `json:"by_name"`
	ByArea []RankEntry `json:"by_area"`
}

// Aggregator computes leaderboards over the persisted record set.
type Aggregator struct {
	records RecordStore
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(records RecordStore) *Aggregator {
	return &Aggregator{records: records}
}

// Leaderboards groups all records by display name and by area, counts
// each group, and ranks descending. Ties keep first-seen order, so the
// sort must be stable over the insertion-ordered groups. Anonymous
// submitters collapse into the shared placeholder before ranking.
func (a *Aggregator) Leaderboards() (*Leaderboards, error) {
	records, err := a.records.ListAll()
	if err != nil {
		return nil, err
	}

	byName := make([]RankEntry, 0)
	byArea := make([]RankEntry, 0)
	nameIdx := make(map[string]int)
	areaIdx := make(map[string]int)

	for _, rec := range records {
		name := rec.DisplayName()
		if i, ok := nameIdx[name]; ok {
			byName[i].Count++
		} else {
			nameIdx[name] = len(byName)
			byName = append(byName, RankEntry{Name: name, Count: 1})
		}

		if i, ok := areaIdx[rec.Area]; ok {
			byArea[i].Count++
		} else {
			areaIdx[rec.Area] = len(byArea)
			byArea = append(byArea, RankEntry{Name: rec.Area, Count: 1})
		}
	}

	return &Leaderboards{
		ByName: rank(byName),
		ByArea: rank(byArea),
	}, nil
}

func rank(entries []RankEntry) []RankEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}

	return entries
}
