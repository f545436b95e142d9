package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// maxAuditBody 日志中记录的请求/响应体上限
const maxAuditBody = 16384

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < maxAuditBody {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// errReader replays a read error after the buffered bytes.
type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var reqBody []byte
		if c.Request.Body != nil {
			var err error
			reqBody, err = io.ReadAll(c.Request.Body)
			var rest io.Reader = bytes.NewReader(reqBody)
			if err != nil {
				rest = io.MultiReader(rest, errReader{err: err})
			}
			c.Request.Body = io.NopCloser(rest)
		}

		logged := reqBody
		if len(logged) > maxAuditBody {
			logged = logged[:maxAuditBody]
		}
		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("req_body", string(logged)),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", w.body.String()),
		)
	}
}
