package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stagelink/stagelink/internal/authorization"
)

type shortlistActionRequest struct {
	Action       string   `json:"action" binding:"required"`
	CandidateIDs []string `json:"candidate_ids"`
}

func (s *Server) getShortlist(c *gin.Context) {
	projectID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor := actorFrom(c)
	response, err := s.funnelEng.GetShortlist(c.Request.Context(), projectID, actor.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// shortlistAction dispatches generate and manual_override. Authorization is
// per action, so it happens here rather than in route middleware.
func (s *Server) shortlistAction(c *gin.Context) {
	projectID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req shortlistActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	actor := actorFrom(c)
	switch req.Action {
	case "generate":
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.ID, authorization.ObjectShortlist, authorization.ActionShortlistGenerate); err != nil {
			AbortWithError(c, err)
			return
		}
		response, err := s.funnelEng.GenerateShortlist(c.Request.Context(), projectID, actor.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, response)

	case "manual_override":
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.ID, authorization.ObjectShortlist, authorization.ActionShortlistOverride); err != nil {
			AbortWithError(c, err)
			return
		}
		candidateIDs, err := parseIDs(req.CandidateIDs)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		response, err := s.funnelEng.ApplyManualOverride(c.Request.Context(), projectID, actor.ID, candidateIDs)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, response)

	default:
		AbortWithError(c, ErrInvalidRequest)
	}
}

func parseIDs(raw []string) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(raw))
	for _, value := range raw {
		id, err := snowflake.ParseString(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
