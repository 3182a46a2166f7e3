// Copyright 2026 The LandGods Authors
// SPDX-License-Identifier: Apache-2.0

package shrine

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qingshui/landgods/spatial"
)

func seedRecord(t *testing.T, store *memRecordStore, nickname, area string) {
	t.Helper()

	created, err := store.CreateIfAbsent(&Record{
		ImageURL: fmt.Sprintf("https://photos.test/seed%d.jpg", store.nextID+1),
		Point:    spatial.Point{Lat: 24.40, Lng: 120.65},
		Nickname: nickname,
		Area:     area,
		Source:   SourceUpload,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestLeaderboardsCountsAndOrder(t *testing.T) {
	store := &memRecordStore{}

	seedRecord(t, store, "阿明", "清水里")
	seedRecord(t, store, "阿明", "高美里")
	seedRecord(t, store, "阿明", "清水里")
	seedRecord(t, store, "小華", "高美里")

	boards, err := NewAggregator(store).Leaderboards()
	require.NoError(t, err)

	expected := &Leaderboards{
		ByName: []RankEntry{
			{Name: "阿明", Count: 3},
			{Name: "小華", Count: 1},
		},
		ByArea: []RankEntry{
			{Name: "清水里", Count: 2},
			{Name: "高美里", Count: 2},
		},
	}

	if diff := cmp.Diff(expected, boards); diff != "" {
		t.Errorf("leaderboards mismatch (-expected +got):\n%s", diff)
	}
}

func TestLeaderboardsTiesKeepFirstSeenOrder(t *testing.T) {
	store := &memRecordStore{}

	seedRecord(t, store, "乙", "社口里")
	seedRecord(t, store, "甲", "菁埔里")

	boards, err := NewAggregator(store).Leaderboards()
	require.NoError(t, err)

	require.Len(t, boards.ByName, 2)
	assert.Equal(t, "乙", boards.ByName[0].Name)
	assert.Equal(t, "甲", boards.ByName[1].Name)
}

func TestLeaderboardsAnonymousCollapse(t *testing.T) {
	store := &memRecordStore{}

	seedRecord(t, store, "", "清水里")
	seedRecord(t, store, "   ", "清水里")
	seedRecord(t, store, "阿明", "清水里")

	boards, err := NewAggregator(store).Leaderboards()
	require.NoError(t, err)

	require.Len(t, boards.ByName, 2)
	assert.Equal(t, RankEntry{Name: AnonymousName, Count: 2}, boards.ByName[0])
	assert.Equal(t, RankEntry{Name: "阿明", Count: 1}, boards.ByName[1])
}

func TestLeaderboardsCapped(t *testing.T) {
	store := &memRecordStore{}

	for i := 0; i < LeaderboardSize+5; i++ {
		seedRecord(t, store, fmt.Sprintf("submitter%d", i), fmt.Sprintf("area%d", i))
	}

	boards, err := NewAggregator(store).Leaderboards()
	require.NoError(t, err)

	assert.Len(t, boards.ByName, LeaderboardSize)
	assert.Len(t, boards.ByArea, LeaderboardSize)
}

func TestLeaderboardsEmpty(t *testing.T) {
	boards, err := NewAggregator(&memRecordStore{}).Leaderboards()
	require.NoError(t, err)

	assert.Empty(t, boards.ByName)
	assert.Empty(t, boards.ByArea)
}
