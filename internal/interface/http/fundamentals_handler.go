package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	fundapp "stonx/internal/application/fundamentals"
	"stonx/internal/domain/marketdata"
)

type refreshQueuedResponse struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

func (s *Server) handleFundamentals(c *gin.Context) {
	limit, err := fundapp.ParseLimit(c.Query("limit"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	report, err := s.fundQuery.Fundamentals(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, report)
}

// handleFundamentalsRefresh 於背景同步單一代號季報，立即回應 202。
func (s *Server) handleFundamentalsRefresh(c *gin.Context) {
	symbol := marketdata.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "symbol is required")
		return
	}
	go func() {
		res, err := s.fundSync.Sync(s.ctx, []string{symbol})
		if err != nil {
			log.Printf("[Fundamentals] refresh %s failed: %v", symbol, err)
			return
		}
		if !res.Started {
			log.Printf("[Fundamentals] refresh %s skipped: %s", symbol, res.Reason)
		}
	}()
	writeData(c, http.StatusAccepted, refreshQueuedResponse{Symbol: symbol, Status: "queued"})
}

func (s *Server) handleValuations(c *gin.Context) {
	out, err := s.fundQuery.Valuations(c.Request.Context(), c.Query("symbols"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeData(c, http.StatusOK, out)
}
