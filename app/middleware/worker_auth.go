package middleware

import (
	"net/http"

	"transcribe-cafe/app/config"

	"github.com/gin-gonic/gin"
)

// WorkerTokenHeader worker 鉴权头
const WorkerTokenHeader = "X-Worker-Token"

// WorkerAuth worker 共享密钥鉴权中间件。
// 未配置 api_key 时直接放行（仅限可信部署环境）。
func WorkerAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Worker.APIKey == "" {
			c.Next()
			return
		}

		token := c.GetHeader(WorkerTokenHeader)
		if token != cfg.Worker.APIKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid worker token",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
