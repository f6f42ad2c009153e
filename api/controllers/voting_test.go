package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	th "github.com/FerDoranNie/Video-judgement/api/controllers/testing"
	"github.com/FerDoranNie/Video-judgement/api/models"
	"github.com/FerDoranNie/Video-judgement/api/transport"
	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/FerDoranNie/Video-judgement/voting"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logging.Log = logrus.New()
}

type testEnv struct {
	router      *gin.Engine
	tournaments *storage.MemoryTournamentStorage
	votes       *storage.MemoryVoteStorage
	manager     *voting.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tournaments := storage.NewMemoryTournamentStorage()
	votes := storage.NewMemoryVoteStorage()
	manager := voting.NewManager(tournaments, votes, 5*time.Second)

	router := transport.NewRouter(gin.TestMode)
	NewVotingController(manager).RegisterRoutes(router)
	NewAdminController(tournaments, votes).RegisterRoutes(router)
	NewResultsController(tournaments, votes).RegisterRoutes(router)

	return &testEnv{
		router:      router,
		tournaments: tournaments,
		votes:       votes,
		manager:     manager,
	}
}

func seedTournament(t *testing.T, env *testEnv, tournament *storage.Tournament) {
	t.Helper()
	require.NoError(t, env.tournaments.Put(context.Background(), tournament))
}

func testTournament(code, method string, videoIDs ...string) *storage.Tournament {
	videos := make([]storage.Video, 0, len(videoIDs))
	for _, id := range videoIDs {
		videos = append(videos, storage.Video{ID: id, Title: "Video " + id, SourceURL: "https://videos.example/" + id})
	}
	tournament := &storage.Tournament{
		Code:         code,
		Name:         "Quarterly showcase",
		HostID:       "host-1",
		HostName:     "Host",
		Videos:       videos,
		IsActive:     true,
		VotingMethod: method,
	}
	if method == "ranking" {
		tournament.RankingScale = 10
		tournament.RankingQuestions = []storage.RankingQuestion{
			{ID: "Q1", Text: "Creativity"},
			{ID: "Q2", Text: "Execution"},
		}
	}
	return tournament
}

func boolPtr(v bool) *bool { return &v }

func login(t *testing.T, env *testEnv, req models.LoginRequest) models.SessionResponse {
	t.Helper()
	res := th.PerformRequest(env.router, http.MethodPost, "/api/session", req, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var session models.SessionResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))
	return session
}

func TestStartSession(t *testing.T) {
	env := newTestEnv(t)
	tournament := testTournament("AB123", "like", "V1", "V2")
	tournament.AuthorizedDirectorIDs = []string{"E100"}
	seedTournament(t, env, tournament)

	t.Run("Happy path - trial participant", func(t *testing.T) {
		session := login(t, env, models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "ab123"})

		assert.NotEmpty(t, session.SessionID)
		assert.Equal(t, "AB123", session.Code)
		assert.Equal(t, "like", session.VotingMethod)
		assert.Len(t, session.Videos, 2)
		assert.Equal(t, 2, session.Total)
	})

	t.Run("Unhappy path - unknown code", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, "/api/session",
			models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "ZZZZZ"}, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("Unhappy path - invalid role", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, "/api/session",
			models.LoginRequest{DisplayName: "Ana", Role: "spectator", Code: "AB123"}, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("Unhappy path - director not on the list", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, "/api/session",
			models.LoginRequest{DisplayName: "Dir", Role: "director", EmployeeID: "E999", Code: "AB123"}, nil)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("Unhappy path - closed tournament", func(t *testing.T) {
		closed := testTournament("CD456", "like", "V1")
		seedTournament(t, env, closed)
		require.NoError(t, env.tournaments.SetInactive(context.Background(), "CD456"))

		res := th.PerformRequest(env.router, http.MethodPost, "/api/session",
			models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "CD456"}, nil)
		assert.Equal(t, http.StatusGone, res.Code)
	})
}

func TestVoteFlow(t *testing.T) {
	env := newTestEnv(t)
	seedTournament(t, env, testTournament("AB123", "like", "V1", "V2"))

	session := login(t, env, models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "AB123"})
	base := "/api/session/" + session.SessionID

	t.Run("Unhappy path - vote out of sequence", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, base+"/vote",
			models.ConfirmVoteRequest{VideoID: session.Videos[1].ID, Liked: boolPtr(true)}, nil)
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("Unhappy path - incomplete answer", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, base+"/vote",
			models.ConfirmVoteRequest{VideoID: session.Videos[0].ID}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	})

	t.Run("Happy path - confirm both videos", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, base+"/vote",
			models.ConfirmVoteRequest{VideoID: session.Videos[0].ID, Liked: boolPtr(true)}, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var progress models.ProgressResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &progress))
		assert.Equal(t, "presenting", progress.State)
		assert.Equal(t, 1, progress.Index)
		require.NotNil(t, progress.Current)
		assert.Equal(t, session.Videos[1].ID, progress.Current.ID)

		res = th.PerformRequest(env.router, http.MethodPost, base+"/vote",
			models.ConfirmVoteRequest{VideoID: session.Videos[1].ID, Liked: boolPtr(false)}, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &progress))
		assert.Equal(t, "completed", progress.State)
		assert.Nil(t, progress.Current)

		stored, err := env.votes.GetByCode(context.Background(), "AB123")
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("Unhappy path - vote after completion", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, base+"/vote",
			models.ConfirmVoteRequest{Liked: boolPtr(true)}, nil)
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("Happy path - status reports delivered records", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodGet, base, nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var status models.SessionStatusResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &status))
		assert.Equal(t, "completed", status.Progress.State)
		require.Len(t, status.Deliveries, 2)
		for _, d := range status.Deliveries {
			assert.Equal(t, "delivered", d.Status)
		}
	})

	t.Run("Unhappy path - same identity cannot start again", func(t *testing.T) {
		res := th.PerformRequest(env.router, http.MethodPost, "/api/session",
			models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "AB123"}, nil)
		assert.Equal(t, http.StatusConflict, res.Code)
	})
}

func TestRankingVoteFlow(t *testing.T) {
	env := newTestEnv(t)
	seedTournament(t, env, testTournament("RK999", "ranking", "V1"))

	session := login(t, env, models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "RK999"})
	assert.Equal(t, 10, session.RankingScale)
	require.Len(t, session.RankingQuestions, 2)

	res := th.PerformRequest(env.router, http.MethodPost, "/api/session/"+session.SessionID+"/vote",
		models.ConfirmVoteRequest{
			VideoID:       "V1",
			RankingScores: map[string]int{"Q1": 8, "Q2": 6},
			Comment:       "strong script",
		}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	stored, err := env.votes.GetByCode(context.Background(), "RK999")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 14, stored[0].Score)
	assert.Equal(t, "strong script", stored[0].Comment)
}

func TestAbandonSession(t *testing.T) {
	env := newTestEnv(t)
	seedTournament(t, env, testTournament("AB123", "like", "V1", "V2"))

	session := login(t, env, models.LoginRequest{DisplayName: "Ana", Role: "trial", Code: "AB123"})

	res := th.PerformRequest(env.router, http.MethodDelete, "/api/session/"+session.SessionID, nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = th.PerformRequest(env.router, http.MethodGet, "/api/session/"+session.SessionID, nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUnknownSessionRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/session/nope"},
		{http.MethodPost, "/api/session/nope/vote"},
		{http.MethodPost, "/api/session/nope/retry"},
		{http.MethodPost, "/api/session/nope/close"},
	} {
		res := th.PerformRequest(env.router, route.method, route.path, models.ConfirmVoteRequest{}, nil)
		assert.Equal(t, http.StatusNotFound, res.Code, "%s %s", route.method, route.path)
	}
}
