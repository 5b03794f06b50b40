package api

import (
	"strconv"
	"strings"

	handlershared "github.com/prato-next/internal/http/handlers/shared"
	"github.com/prato-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// getActor 读取中间件注入的调用方身份
func getActor(c *gin.Context) (string, string, bool) {
	id := strings.TrimSpace(c.GetString("actor_id"))
	role := strings.TrimSpace(c.GetString("actor_role"))
	if id == "" || role == "" {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return "", "", false
	}
	return id, role, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || raw == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(raw), true
}
