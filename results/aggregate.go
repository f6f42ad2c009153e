// Package results turns a tournament's vote records into deterministic
// summary statistics. Aggregation is a pure function of whatever record
// subset it is given: the same input in any order yields identical output.
package results

import (
	"sort"

	"github.com/FerDoranNie/Video-judgement/storage"
)

// VideoStats is the per-video summary used for both on-screen ranking and
// export.
type VideoStats struct {
	VideoID            string             `json:"videoId"`
	Title              string             `json:"title"`
	Count              int                `json:"count"`
	TotalScore         int                `json:"totalScore"`
	LikeCount          int                `json:"likeCount"`
	DislikeCount       int                `json:"dislikeCount"`
	PerQuestionTotal   map[string]int     `json:"perQuestionTotal"`
	PerQuestionAverage map[string]float64 `json:"perQuestionAverage"`
}

// Aggregate folds the record set into per-video stats. Every video in the
// roster gets an entry, zero-voted ones included; records referencing
// unknown video ids are ignored.
func Aggregate(videos []storage.Video, votes []*storage.VoteRecord) map[string]*VideoStats {
	stats := make(map[string]*VideoStats, len(videos))
	for _, v := range videos {
		stats[v.ID] = &VideoStats{
			VideoID:            v.ID,
			Title:              v.Title,
			PerQuestionTotal:   map[string]int{},
			PerQuestionAverage: map[string]float64{},
		}
	}

	for _, vote := range votes {
		s, ok := stats[vote.VideoID]
		if !ok {
			continue
		}
		s.Count++
		s.TotalScore += vote.Score
		if vote.Liked {
			s.LikeCount++
		} else {
			s.DislikeCount++
		}
		for questionID, score := range vote.RankingScores {
			s.PerQuestionTotal[questionID] += score
		}
	}

	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		for questionID, total := range s.PerQuestionTotal {
			s.PerQuestionAverage[questionID] = float64(total) / float64(s.Count)
		}
	}
	return stats
}

// Leaderboard orders the roster for display. Like method: most likes
// first, then fewer dislikes, then video id. Ranking method: highest total
// score first, then video id. Ties are never left arbitrary.
func Leaderboard(videos []storage.Video, stats map[string]*VideoStats, method string) []*VideoStats {
	board := make([]*VideoStats, 0, len(videos))
	for _, v := range videos {
		if s, ok := stats[v.ID]; ok {
			board = append(board, s)
		}
	}

	sort.Slice(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if method == "ranking" {
			if a.TotalScore != b.TotalScore {
				return a.TotalScore > b.TotalScore
			}
			return a.VideoID < b.VideoID
		}
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if a.DislikeCount != b.DislikeCount {
			return a.DislikeCount < b.DislikeCount
		}
		return a.VideoID < b.VideoID
	})
	return board
}

// FilterByRoles restricts a record set to the given roles, so the same
// aggregation serves the panel (director/admin) and audience
// (collaborator/trial) groupings without changing the algorithm.
func FilterByRoles(votes []*storage.VoteRecord, roles ...string) []*storage.VoteRecord {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	filtered := make([]*storage.VoteRecord, 0, len(votes))
	for _, v := range votes {
		if allowed[v.Role] {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
