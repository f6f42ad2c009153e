package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FerDoranNie/Video-judgement/storage"
)

type VideoPayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceURL  string `json:"sourceUrl"`
	ScriptText string `json:"scriptText"`
}

type RankingQuestionPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type CreateTournamentRequest struct {
	Name                  string                   `json:"name"`
	HostID                string                   `json:"hostId"`
	HostName              string                   `json:"hostName"`
	Videos                []VideoPayload           `json:"videos"`
	AuthorizedDirectorIDs []string                 `json:"authorizedDirectorIds"`
	VotingMethod          string                   `json:"votingMethod"`
	RankingScale          int                      `json:"rankingScale"`
	RankingQuestions      []RankingQuestionPayload `json:"rankingQuestions"`
}

// Validate applies the publish-time invariants: a non-empty uniquely-keyed
// roster, a known method, and for the ranking method one to three
// questions on a positive scale.
func (r *CreateTournamentRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("tournament name is required")
	}
	if len(r.Videos) == 0 {
		return errors.New("at least one video is required")
	}
	seen := make(map[string]bool, len(r.Videos))
	for _, v := range r.Videos {
		if strings.TrimSpace(v.ID) == "" {
			return errors.New("every video needs an id")
		}
		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("video %s has no title", v.ID)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate video id %s", v.ID)
		}
		seen[v.ID] = true
	}

	if !ValidVotingMethods[r.VotingMethod] {
		return fmt.Errorf("unknown voting method %q", r.VotingMethod)
	}
	if r.VotingMethod == "ranking" {
		if len(r.RankingQuestions) < 1 || len(r.RankingQuestions) > 3 {
			return errors.New("ranking method needs between 1 and 3 questions")
		}
		if r.RankingScale < 1 {
			return errors.New("ranking scale must be at least 1")
		}
		for _, q := range r.RankingQuestions {
			if strings.TrimSpace(q.ID) == "" || strings.TrimSpace(q.Text) == "" {
				return errors.New("every ranking question needs an id and a text")
			}
		}
	}
	return nil
}

func (r *CreateTournamentRequest) ToStorage(code string) *storage.Tournament {
	videos := make([]storage.Video, 0, len(r.Videos))
	for _, v := range r.Videos {
		videos = append(videos, storage.Video{
			ID:         v.ID,
			Title:      v.Title,
			SourceURL:  v.SourceURL,
			ScriptText: v.ScriptText,
		})
	}

	questions := make([]storage.RankingQuestion, 0, len(r.RankingQuestions))
	scale := 0
	if r.VotingMethod == "ranking" {
		for _, q := range r.RankingQuestions {
			questions = append(questions, storage.RankingQuestion{ID: q.ID, Text: q.Text})
		}
		scale = r.RankingScale
	}

	return &storage.Tournament{
		Code:                  code,
		Name:                  r.Name,
		HostID:                r.HostID,
		HostName:              r.HostName,
		Videos:                videos,
		CreatedAt:             time.Now().UTC(),
		IsActive:              true,
		AuthorizedDirectorIDs: r.AuthorizedDirectorIDs,
		VotingMethod:          r.VotingMethod,
		RankingScale:          scale,
		RankingQuestions:      questions,
	}
}

type TournamentResponse struct {
	Code             string                   `json:"code"`
	Name             string                   `json:"name"`
	HostName         string                   `json:"hostName"`
	Videos           []VideoPayload           `json:"videos"`
	CreatedAt        time.Time                `json:"createdAt"`
	IsActive         bool                     `json:"isActive"`
	VotingMethod     string                   `json:"votingMethod"`
	RankingScale     int                      `json:"rankingScale"`
	RankingQuestions []RankingQuestionPayload `json:"rankingQuestions"`
}

func TransformTournamentFromStorage(t *storage.Tournament) TournamentResponse {
	return TournamentResponse{
		Code:             t.Code,
		Name:             t.Name,
		HostName:         t.HostName,
		Videos:           transformVideos(t.Videos),
		CreatedAt:        t.CreatedAt,
		IsActive:         t.IsActive,
		VotingMethod:     t.VotingMethod,
		RankingScale:     t.RankingScale,
		RankingQuestions: transformQuestions(t.RankingQuestions),
	}
}

func transformVideos(videos []storage.Video) []VideoPayload {
	out := make([]VideoPayload, 0, len(videos))
	for _, v := range videos {
		out = append(out, VideoPayload{
			ID:         v.ID,
			Title:      v.Title,
			SourceURL:  v.SourceURL,
			ScriptText: v.ScriptText,
		})
	}
	return out
}

func transformQuestions(questions []storage.RankingQuestion) []RankingQuestionPayload {
	out := make([]RankingQuestionPayload, 0, len(questions))
	for _, q := range questions {
		out = append(out, RankingQuestionPayload{ID: q.ID, Text: q.Text})
	}
	return out
}
