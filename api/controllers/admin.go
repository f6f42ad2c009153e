package controllers

import (
	"errors"
	"net/http"

	"github.com/FerDoranNie/Video-judgement/api/models"
	"github.com/FerDoranNie/Video-judgement/api/transport"
	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AdminController struct {
	tournamentStorage storage.TournamentStorage
	voteStorage       storage.VoteStorage
}

func NewAdminController(tournamentStorage storage.TournamentStorage, voteStorage storage.VoteStorage) *AdminController {
	return &AdminController{
		tournamentStorage: tournamentStorage,
		voteStorage:       voteStorage,
	}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin", transport.AdminAuthMiddleware())

	group.POST("/tournaments", c.createTournament)
	group.GET("/tournaments", c.listTournaments)
	group.GET("/tournaments/:code/votes", c.listVotes)
	group.POST("/tournaments/:code/close", c.closeTournament)
}

// @Security AdminToken
// createTournament godoc
// @Summary Publish a new tournament
// @Description Validates the video roster and voting configuration, generates the public 5-character code and stores the event as active
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateTournamentRequest true "Tournament configuration"
// @Success 200 {object} models.TournamentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/tournaments [post]
func (c *AdminController) createTournament(g *gin.Context) {
	var req models.CreateTournamentRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}
	if err := req.Validate(); err != nil {
		logging.Log.Warnf("ADMIN: rejected tournament create: %v", err)
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
		return
	}

	// Codes are globally unique; on the rare collision we draw again.
	var tournament *storage.Tournament
	for attempt := 0; attempt < 3; attempt++ {
		tournament = req.ToStorage(c.generateCode())
		err := c.tournamentStorage.Put(g.Request.Context(), tournament)
		if err == nil {
			logging.Log.Infof("ADMIN: created tournament %s with %d videos (%s)",
				tournament.Code, len(tournament.Videos), tournament.VotingMethod)
			g.JSON(http.StatusOK, models.TransformTournamentFromStorage(tournament))
			return
		}
		if !errors.Is(err, storage.ErrTournamentAlreadyExists) {
			logging.Log.Errorf("ADMIN: failed to store tournament: %v", err)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not store tournament"})
			return
		}
		logging.Log.Warnf("ADMIN: code collision on %s, drawing a new code", tournament.Code)
	}

	g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not allocate a unique tournament code"})
}

// @Security AdminToken
// listTournaments godoc
// @Summary List all tournaments
// @Tags admin
// @Produce json
// @Success 200 {array} models.TournamentResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/tournaments [get]
func (c *AdminController) listTournaments(g *gin.Context) {
	tournaments, err := c.tournamentStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list tournaments: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.TournamentResponse, 0, len(tournaments))
	for _, t := range tournaments {
		out = append(out, models.TransformTournamentFromStorage(t))
	}
	logging.Log.Infof("ADMIN: listed %d tournaments", len(out))
	g.JSON(http.StatusOK, out)
}

// @Security AdminToken
// listVotes godoc
// @Summary List raw vote records for a tournament
// @Description Full rows for the detailed per-participant export; every record field is present, not-applicable values included
// @Tags admin
// @Produce json
// @Param code path string true "Tournament code"
// @Success 200 {array} models.VoteRow
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/tournaments/{code}/votes [get]
func (c *AdminController) listVotes(g *gin.Context) {
	code := g.Param("code")
	votes, err := c.voteStorage.GetByCode(g.Request.Context(), code)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to retrieve votes for %s: %v", code, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not retrieve votes"})
		return
	}

	rows := make([]models.VoteRow, 0, len(votes))
	for _, v := range votes {
		rows = append(rows, models.TransformVoteFromStorage(v))
	}
	g.JSON(http.StatusOK, rows)
}

// @Security AdminToken
// closeTournament godoc
// @Summary Close a tournament
// @Description Marks the tournament inactive; closing an already-closed tournament reports success
// @Tags admin
// @Produce json
// @Param code path string true "Tournament code"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/tournaments/{code}/close [post]
func (c *AdminController) closeTournament(g *gin.Context) {
	code := g.Param("code")
	if err := c.tournamentStorage.SetInactive(g.Request.Context(), code); err != nil {
		if errors.Is(err, storage.ErrTournamentNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "tournament not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to close tournament %s: %v", code, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not close tournament"})
		return
	}
	logging.Log.Infof("ADMIN: closed tournament %s", code)
	g.JSON(http.StatusOK, gin.H{"closed": code})
}

func (c *AdminController) generateCode() string {
	code, err := gonanoid.Generate(models.Alphabet, models.CodeLength)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to generate code: %v", err)
		return "ERROR"
	}
	return code
}
