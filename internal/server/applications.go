package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
)

type createApplicationRequest struct {
	Motivation string `json:"motivation"`
}

type createApplicationResponse struct {
	ApplicationID snowflake.ID             `json:"application_id"`
	Status        applicationdomain.Status `json:"status"`
	Quota         any                      `json:"quota"`
}

func (s *Server) createApplication(c *gin.Context) {
	projectID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor := actorFrom(c)
	application, decision, err := s.funnelEng.RecordApplication(c.Request.Context(), actor.ID, projectID, req.Motivation)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createApplicationResponse{
		ApplicationID: application.ID,
		Status:        application.Status,
		Quota:         decision,
	})
}

type bulkTransitionRequest struct {
	ApplicationIDs []string `json:"application_ids" binding:"required"`
	TargetStatus   string   `json:"target_status" binding:"required"`
}

func (s *Server) bulkTransition(c *gin.Context) {
	var req bulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ids, err := parseIDs(req.ApplicationIDs)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor := actorFrom(c)
	results, err := s.funnelEng.BulkTransition(c.Request.Context(), actor.ID, ids, applicationdomain.Status(req.TargetStatus))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) checkLimits(c *gin.Context) {
	actor := actorFrom(c)
	decision, err := s.funnelEng.CheckApplicationLimits(c.Request.Context(), actor.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
