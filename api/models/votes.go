package models

import (
	"time"

	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/FerDoranNie/Video-judgement/voting"
)

type ConfirmVoteRequest struct {
	VideoID       string         `json:"videoId"`
	Liked         *bool          `json:"liked"`
	RankingScores map[string]int `json:"rankingScores"`
	Comment       string         `json:"comment"`
}

func (r *ConfirmVoteRequest) ToAnswer() voting.Answer {
	return voting.Answer{
		Liked:   r.Liked,
		Scores:  r.RankingScores,
		Comment: r.Comment,
	}
}

type ProgressResponse struct {
	State        string        `json:"state"`
	Index        int           `json:"index"`
	Total        int           `json:"total"`
	Current      *VideoPayload `json:"current"`
	Pending      int           `json:"pendingDeliveries"`
	Failed       int           `json:"failedDeliveries"`
	FinalPending bool          `json:"finalPendingRetry"`
}

func TransformProgress(p *voting.Progress) ProgressResponse {
	resp := ProgressResponse{
		State:        p.State,
		Index:        p.Index,
		Total:        p.Total,
		Pending:      p.Pending,
		Failed:       p.Failed,
		FinalPending: p.FinalStuck,
	}
	if p.Current != nil {
		resp.Current = &VideoPayload{
			ID:         p.Current.ID,
			Title:      p.Current.Title,
			SourceURL:  p.Current.SourceURL,
			ScriptText: p.Current.ScriptText,
		}
	}
	return resp
}

type DeliveryEntry struct {
	VideoID  string `json:"videoId"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

type SessionStatusResponse struct {
	Progress   ProgressResponse `json:"progress"`
	Deliveries []DeliveryEntry  `json:"deliveries"`
}

type RetryResponse struct {
	Requeued int              `json:"requeued"`
	Progress ProgressResponse `json:"progress"`
}

// VoteRow is the raw per-participant export shape. Every field listed in
// the record model is present, not-applicable values included, so export
// formatting stays purely mechanical.
type VoteRow struct {
	Code          string         `json:"code"`
	VideoID       string         `json:"videoId"`
	ParticipantID string         `json:"participantId"`
	DisplayName   string         `json:"displayName"`
	Role          string         `json:"role"`
	EmployeeID    string         `json:"employeeId"`
	Score         int            `json:"score"`
	Liked         bool           `json:"liked"`
	RankingScores map[string]int `json:"rankingScores"`
	Comment       string         `json:"comment"`
	Timestamp     time.Time      `json:"timestamp"`
}

func TransformVoteFromStorage(v *storage.VoteRecord) VoteRow {
	scores := v.RankingScores
	if scores == nil {
		scores = map[string]int{}
	}
	return VoteRow{
		Code:          v.Code,
		VideoID:       v.VideoID,
		ParticipantID: v.ParticipantID,
		DisplayName:   v.DisplayName,
		Role:          v.Role,
		EmployeeID:    v.EmployeeID,
		Score:         v.Score,
		Liked:         v.Liked,
		RankingScores: scores,
		Comment:       v.Comment,
		Timestamp:     v.Timestamp,
	}
}
