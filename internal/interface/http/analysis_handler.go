package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stonx/internal/application/analysis"
	mdapp "stonx/internal/application/marketdata"
	analysisDomain "stonx/internal/domain/analysis"
)

type runResultsResponse struct {
	RunID   string                        `json:"runId"`
	Results []analysisDomain.SymbolResult `json:"results"`
}

type analyzeRequest struct {
	GroupID string               `json:"groupId"`
	Symbols []string             `json:"symbols"`
	Range   analysisDomain.Range `json:"range"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}
	out, err := s.analyzeUC.Execute(c.Request.Context(), analysis.AnalyzeInput{
		GroupID: body.GroupID,
		Symbols: body.Symbols,
		Range:   body.Range,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusCreated, out)
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.queryUC.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, run)
}

func (s *Server) handleRunResults(c *gin.Context) {
	runID := c.Param("id")
	results, err := s.queryUC.ListResults(c.Request.Context(), runID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, runResultsResponse{RunID: runID, Results: results})
}

func (s *Server) handlePrices(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "symbol is required")
		return
	}
	rng, err := mdapp.ParseChartRange(c.Query("range"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out, err := s.pricesUC.Prices(c.Request.Context(), symbol, rng)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, out)
}

// handleRefreshNow 於背景觸發一次刷新，立即回應 202。
func (s *Server) handleRefreshNow(c *gin.Context) {
	go s.scheduler.RunNow()
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "refresh started"})
}
