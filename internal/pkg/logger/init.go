package logger

import (
	"Fellowship/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// LogWriter gin 访问日志的输出，连上 Logstash 后同时写远端
var LogWriter io.Writer = os.Stdout

func InitLogger() {
	var logCfg config.LogConfig
	var stashCfg config.LogstashConfig
	if config.Cfg != nil {
		logCfg, stashCfg = config.Cfg.Log, config.Cfg.Logstash
	}

	level := ParseLevel(logCfg.Level, log.LevelInfo)
	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: level})

	var finalHandler log.Handler = hStdout

	if stashCfg.Address != "" {
		conn, err := net.DialTimeout("tcp", stashCfg.Address, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: ParseLevel(logCfg.RemoteLevel, level)}).
				WithAttrs([]log.Attr{
					log.String("target_index", stashCfg.Index),
					log.String("log_token", stashCfg.Token),
				})

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, NewRemoteHandler(hRemote)},
			}

			LogWriter = io.MultiWriter(os.Stdout, conn)
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}

// ParseLevel 无法识别时返回 fallback
func ParseLevel(s string, fallback log.Level) log.Level {
	var level log.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}
	return level
}
