package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	analysisDomain "stonx/internal/domain/analysis"
	"stonx/internal/domain/group"
	"stonx/internal/domain/marketdata"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}

func writeData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// writeDomainError 將用例錯誤對應為 HTTP 狀態與錯誤碼。
func writeDomainError(c *gin.Context, err error) {
	var ve *marketdata.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(c, http.StatusBadRequest, errCodeBadRequest, strings.Join(ve.Reasons, "; "))
	case errors.Is(err, group.ErrGroupNotFound), errors.Is(err, analysisDomain.ErrRunNotFound):
		writeError(c, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, group.ErrGroupExists):
		writeError(c, http.StatusConflict, errCodeGroupExists, err.Error())
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		writeError(c, http.StatusInternalServerError, errCodeInternal, err.Error())
	}
}
