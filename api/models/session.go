package models

import (
	"github.com/FerDoranNie/Video-judgement/voting"
)

type LoginRequest struct {
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	EmployeeID  string `json:"employeeId"`
	Code        string `json:"code"`
}

type SessionResponse struct {
	SessionID        string                   `json:"sessionId"`
	Code             string                   `json:"code"`
	TournamentName   string                   `json:"tournamentName"`
	VotingMethod     string                   `json:"votingMethod"`
	RankingScale     int                      `json:"rankingScale"`
	RankingQuestions []RankingQuestionPayload `json:"rankingQuestions"`
	Videos           []VideoPayload           `json:"videos"`
	Total            int                      `json:"total"`
}

// TransformSession exposes the session-scoped shuffled order, not the
// published one.
func TransformSession(s *voting.Session) SessionResponse {
	return SessionResponse{
		SessionID:        s.ID,
		Code:             s.Tournament.Code,
		TournamentName:   s.Tournament.Name,
		VotingMethod:     s.Tournament.VotingMethod,
		RankingScale:     s.Tournament.RankingScale,
		RankingQuestions: transformQuestions(s.Tournament.RankingQuestions),
		Videos:           transformVideos(s.Order),
		Total:            len(s.Order),
	}
}
