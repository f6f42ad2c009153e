package models

import (
	"github.com/FerDoranNie/Video-judgement/results"
)

type ResultEntry struct {
	Rank               int                `json:"rank"`
	VideoID            string             `json:"videoId"`
	Title              string             `json:"title"`
	Count              int                `json:"count"`
	TotalScore         int                `json:"totalScore"`
	LikeCount          int                `json:"likeCount"`
	DislikeCount       int                `json:"dislikeCount"`
	PerQuestionAverage map[string]float64 `json:"perQuestionAverage"`
}

type VoteResultsResponse struct {
	Code         string        `json:"code"`
	VotingMethod string        `json:"votingMethod"`
	Group        string        `json:"group"`
	TotalVotes   int           `json:"totalVotes"`
	Results      []ResultEntry `json:"results"`
}

func TransformLeaderboard(board []*results.VideoStats) []ResultEntry {
	out := make([]ResultEntry, 0, len(board))
	for i, s := range board {
		out = append(out, ResultEntry{
			Rank:               i + 1,
			VideoID:            s.VideoID,
			Title:              s.Title,
			Count:              s.Count,
			TotalScore:         s.TotalScore,
			LikeCount:          s.LikeCount,
			DislikeCount:       s.DislikeCount,
			PerQuestionAverage: s.PerQuestionAverage,
		})
	}
	return out
}
