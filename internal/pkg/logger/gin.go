package logger

import (
	"Fellowship/internal/api/config"
	"Fellowship/internal/pkg/consts"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// accessLogSkipPaths 健康检查不记访问日志
var accessLogSkipPaths = []string{"/api/ping"}

// SetupGin 访问日志 (JSON 行) + panic 恢复，panic 时返回统一的失败响应
func SetupGin(r *gin.Engine) {
	index, token := "logstash-fellowship", ""
	if config.Cfg != nil {
		index, token = config.Cfg.Logstash.Index, config.Cfg.Logstash.Token
	}

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: accessLogSkipPaths,
		Formatter: func(p gin.LogFormatterParams) string {
			var traceID string
			var userID uint64
			if p.Keys != nil {
				if id, ok := p.Keys[TraceIDKey].(string); ok {
					traceID = id
				}
				if uid, ok := p.Keys[consts.CtxUserID].(uint64); ok {
					userID = uid
				}
			}

			if traceID == "" && p.Request != nil {
				if id, ok := p.Request.Context().Value(TraceIDKey).(string); ok {
					traceID = id
				}
			}

			return fmt.Sprintf(
				`{"time":"%s","level":"INFO","msg":"GIN_ACCESS","trace_id":"%s","log_token":"%s","target_index":"%s","method":"%s","path":"%s","status":%d,"latency":"%v","client_ip":"%s","user_id":%d}`+"\n",
				p.TimeStamp.Format(time.RFC3339),
				traceID,
				token,
				index,
				p.Method,
				p.Path,
				p.StatusCode,
				p.Latency,
				p.ClientIP,
				userID,
			)
		},
	}))

	r.Use(gin.CustomRecoveryWithWriter(LogWriter, func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "something went wrong, please try again later"})
	}))
}
