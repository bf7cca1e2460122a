package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stonx/internal/application/groups"
	"stonx/internal/domain/group"
)

type createGroupRequest struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

type replaceMembersRequest struct {
	Symbols []string `json:"symbols"`
}

func (s *Server) handleTemplates(c *gin.Context) {
	writeData(c, http.StatusOK, s.groupsUC.Templates())
}

func (s *Server) handleListGroups(c *gin.Context) {
	list, err := s.groupsUC.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, list)
}

func (s *Server) handleGetGroup(c *gin.Context) {
	g, err := s.groupsUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, g)
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var body createGroupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	g, err := s.groupsUC.Create(c.Request.Context(), groups.CreateInput{
		Name:    body.Name,
		Type:    group.Type(body.Type),
		Symbols: body.Symbols,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusCreated, g)
}

func (s *Server) handleReplaceMembers(c *gin.Context) {
	var body replaceMembersRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	g, err := s.groupsUC.ReplaceMembers(c.Request.Context(), c.Param("id"), body.Symbols)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(c *gin.Context) {
	if err := s.groupsUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleScoreHistory(c *gin.Context) {
	ctx := c.Request.Context()
	g, err := s.groupsUC.Get(ctx, c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	history, err := s.recorder.GroupScoreHistory(ctx, g.ID, limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, history)
}
