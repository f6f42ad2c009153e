package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/FerDoranNie/Video-judgement/api/models"
	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/results"
	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/FerDoranNie/Video-judgement/voting"
	"github.com/gin-gonic/gin"
)

type ResultsController struct {
	tournamentStorage storage.TournamentStorage
	voteStorage       storage.VoteStorage
}

func NewResultsController(tournamentStorage storage.TournamentStorage, voteStorage storage.VoteStorage) *ResultsController {
	return &ResultsController{
		tournamentStorage: tournamentStorage,
		voteStorage:       voteStorage,
	}
}

func (c *ResultsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.GET("/tournaments/:code", c.getTournament)
	group.GET("/tournaments/:code/results", c.computeVoteResults)
}

// getTournament godoc
// @Summary Fetch a tournament by its public code
// @Tags results
// @Produce json
// @Param code path string true "Tournament code"
// @Success 200 {object} models.TournamentResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/tournaments/{code} [get]
func (c *ResultsController) getTournament(g *gin.Context) {
	code := strings.ToUpper(g.Param("code"))
	tournament, err := c.tournamentStorage.Get(g.Request.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "tournament not found"})
			return
		}
		logging.Log.Errorf("RESULTS: failed to fetch tournament %s: %v", code, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not fetch tournament"})
		return
	}
	g.JSON(http.StatusOK, models.TransformTournamentFromStorage(tournament))
}

// computeVoteResults godoc
// @Summary Aggregate vote results for a tournament
// @Description Recomputes per-video stats and the leaderboard from the full record set; optional group filter restricts to the panel (director/admin) or the audience (collaborator/trial)
// @Tags results
// @Produce json
// @Param code path string true "Tournament code"
// @Param group query string false "panel or audience"
// @Success 200 {object} models.VoteResultsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/tournaments/{code}/results [get]
func (c *ResultsController) computeVoteResults(g *gin.Context) {
	code := strings.ToUpper(g.Param("code"))
	tournament, err := c.tournamentStorage.Get(g.Request.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "tournament not found"})
			return
		}
		logging.Log.Errorf("RESULTS: failed to fetch tournament %s: %v", code, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not fetch tournament"})
		return
	}

	votes, err := c.voteStorage.GetByCode(g.Request.Context(), code)
	if err != nil {
		logging.Log.Errorf("RESULTS: failed to retrieve votes for %s: %v", code, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not retrieve votes"})
		return
	}

	group := g.Query("group")
	switch group {
	case "":
		group = "all"
	case "panel":
		votes = results.FilterByRoles(votes, voting.RoleDirector, voting.RoleAdmin)
	case "audience":
		votes = results.FilterByRoles(votes, voting.RoleCollaborator, voting.RoleTrial)
	default:
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "group must be panel or audience"})
		return
	}

	stats := results.Aggregate(tournament.Videos, votes)
	board := results.Leaderboard(tournament.Videos, stats, tournament.VotingMethod)

	g.JSON(http.StatusOK, models.VoteResultsResponse{
		Code:         code,
		VotingMethod: tournament.VotingMethod,
		Group:        group,
		TotalVotes:   len(votes),
		Results:      models.TransformLeaderboard(board),
	})
}
