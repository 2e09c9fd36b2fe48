package leaderboard

import ws "github.com/mtsferreira/anatomy-game/pkg/http/ws"

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:        e.Rank,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			XP:          e.XP,
			Streak:      e.Streak,
		}
	}
	return result
}
