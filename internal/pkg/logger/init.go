package logger

import (
	"Attestor/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"
)

// LogWriter gin 访问日志的输出目标
var LogWriter io.Writer = os.Stdout

// InitLogger installs the process-wide slog handler. Records carrying a
// trace_id are additionally shipped to Logstash when an address is configured.
func InitLogger(cfg config.LogstashConfig) {
	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: log.LevelInfo})

	var finalHandler log.Handler = hStdout

	if cfg.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Address, 3*time.Second)
		if err == nil {
			attrs := []log.Attr{log.String("target_index", cfg.Index)}
			if cfg.Token != "" {
				attrs = append(attrs, log.String("log_token", cfg.Token))
			}
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: log.LevelInfo}).WithAttrs(attrs)

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
			}
			LogWriter = io.MultiWriter(os.Stdout, conn)
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}
