package controllers

import (
	"errors"
	"net/http"

	"github.com/FerDoranNie/Video-judgement/api/models"
	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/FerDoranNie/Video-judgement/voting"
	"github.com/gin-gonic/gin"
)

type VotingController struct {
	manager *voting.Manager
}

func NewVotingController(manager *voting.Manager) *VotingController {
	return &VotingController{
		manager: manager,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/session", c.startSession)
	group.GET("/session/:id", c.sessionStatus)
	group.POST("/session/:id/vote", c.confirmVote)
	group.POST("/session/:id/retry", c.retryDeliveries)
	group.POST("/session/:id/close", c.closeTournament)
	group.DELETE("/session/:id", c.abandonSession)
}

// startSession godoc
// @Summary Authorize a participant and start a voting session
// @Description Resolves role, employee identifier and tournament code into a session with a per-participant shuffled video order
// @Tags voting
// @Accept json
// @Produce json
// @Param login body models.LoginRequest true "Participant details"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} models.ErrorResponse "Incomplete participant details"
// @Failure 403 {object} models.ErrorResponse "Director not on the allow-list"
// @Failure 404 {object} models.ErrorResponse "Unknown tournament code"
// @Failure 409 {object} models.ErrorResponse "Participant already voted"
// @Failure 410 {object} models.ErrorResponse "Tournament closed by the organizer"
// @Router /api/session [post]
func (c *VotingController) startSession(g *gin.Context) {
	var req models.LoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	participant := voting.Participant{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		EmployeeID:  req.EmployeeID,
	}
	session, err := c.manager.Authorize(g.Request.Context(), participant, req.Code)
	if err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusOK, models.TransformSession(session))
}

// confirmVote godoc
// @Summary Confirm the judgment of the currently presented video
// @Description Validates completeness for the configured method, persists the record and advances the session; the final video blocks until its record is durable
// @Tags voting
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param vote body models.ConfirmVoteRequest true "Answer for the current video"
// @Success 200 {object} models.ProgressResponse
// @Failure 404 {object} models.ErrorResponse "Unknown session"
// @Failure 409 {object} models.ErrorResponse "Out of sequence, duplicate, or session already completed"
// @Failure 410 {object} models.ErrorResponse "Tournament closed before the final submission"
// @Failure 422 {object} models.ErrorResponse "Incomplete answer"
// @Failure 502 {object} models.ErrorResponse "Persistence failure, final vote kept for retry"
// @Router /api/session/{id}/vote [post]
func (c *VotingController) confirmVote(g *gin.Context) {
	session, err := c.manager.Session(g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	var req models.ConfirmVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	// The wizard is strictly sequential; a stale client vote for another
	// video is rejected instead of silently recorded against the wrong one.
	if req.VideoID != "" {
		current := session.Progress()
		if current.Current == nil || current.Current.ID != req.VideoID {
			g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "vote is out of sequence with the session"})
			return
		}
	}

	progress, err := session.Confirm(g.Request.Context(), req.ToAnswer())
	if err != nil {
		respondVotingError(g, err)
		return
	}

	g.JSON(http.StatusOK, models.TransformProgress(progress))
}

// sessionStatus godoc
// @Summary Report session progress and per-record delivery status
// @Tags voting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionStatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/session/{id} [get]
func (c *VotingController) sessionStatus(g *gin.Context) {
	session, err := c.manager.Session(g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	deliveries := session.Deliveries()
	entries := make([]models.DeliveryEntry, 0, len(deliveries))
	for _, d := range deliveries {
		entries = append(entries, models.DeliveryEntry{
			VideoID:  d.Record.VideoID,
			Status:   string(d.Status),
			Attempts: d.Attempts,
			Error:    d.LastErr,
		})
	}

	g.JSON(http.StatusOK, models.SessionStatusResponse{
		Progress:   models.TransformProgress(session.Progress()),
		Deliveries: entries,
	})
}

// retryDeliveries godoc
// @Summary Retry failed vote deliveries
// @Description Re-queues failed background deliveries and, when the final submission is stuck, re-attempts it from the kept record
// @Tags voting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.RetryResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse "Tournament closed, final vote rejected"
// @Router /api/session/{id}/retry [post]
func (c *VotingController) retryDeliveries(g *gin.Context) {
	session, err := c.manager.Session(g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	requeued := session.RetryFailed()

	progress := session.Progress()
	if progress.FinalStuck {
		progress, err = session.RetryFinal(g.Request.Context())
		if err != nil {
			respondVotingError(g, err)
			return
		}
	}

	g.JSON(http.StatusOK, models.RetryResponse{
		Requeued: requeued,
		Progress: models.TransformProgress(progress),
	})
}

// closeTournament godoc
// @Summary Close the tournament after an admin session completes
// @Description Idempotent; only the session's admin participant may call it once the wizard reached completed
// @Tags voting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse "Not an admin session"
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Session not completed yet"
// @Router /api/session/{id}/close [post]
func (c *VotingController) closeTournament(g *gin.Context) {
	session, err := c.manager.Session(g.Param("id"))
	if err != nil {
		respondVotingError(g, err)
		return
	}

	if err := session.CloseTournament(g.Request.Context()); err != nil {
		respondVotingError(g, err)
		return
	}
	g.JSON(http.StatusOK, gin.H{"closed": session.Tournament.Code})
}

// abandonSession godoc
// @Summary Abandon a session before completion
// @Description Unconfirmed videos are never recorded; already-confirmed records stay
// @Tags voting
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]string
// @Router /api/session/{id} [delete]
func (c *VotingController) abandonSession(g *gin.Context) {
	c.manager.Abandon(g.Param("id"))
	g.JSON(http.StatusOK, gin.H{"abandoned": g.Param("id")})
}

// respondVotingError maps every classified error kind to a distinct status
// and message. Only truly unclassified errors fall back to a generic 500,
// and those are logged for diagnosis.
func respondVotingError(g *gin.Context, err error) {
	switch {
	case errors.Is(err, voting.ErrInvalidParticipant):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrTournamentNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "no tournament exists for this code, check it and try again"})
	case errors.Is(err, voting.ErrTournamentClosed):
		g.JSON(http.StatusGone, &models.ErrorResponse{Error: "this tournament was closed by the organizer and accepts no more votes"})
	case errors.Is(err, voting.ErrUnauthorizedDirector):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "this employee identifier is not on the director list for the tournament"})
	case errors.Is(err, voting.ErrAlreadyVoted):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "this participant already voted in this tournament"})
	case errors.Is(err, voting.ErrIncompleteAnswer):
		g.JSON(http.StatusUnprocessableEntity, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrSessionNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "unknown or expired session"})
	case errors.Is(err, voting.ErrSessionCompleted):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrStoreTimeout):
		g.JSON(http.StatusGatewayTimeout, &models.ErrorResponse{Error: "storage did not answer in time, try again"})
	case errors.Is(err, voting.ErrPersistence):
		g.JSON(http.StatusBadGateway, &models.ErrorResponse{Error: "could not reach storage, the vote was kept for retry"})
	default:
		logging.Log.Errorf("VOTING: unclassified error: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "unexpected internal error"})
	}
}
