package handler

import (
	"Attestor/internal/pkg/response"
	"Attestor/internal/service"
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type SubmissionHandler struct {
	submissionSvc service.SubmissionService
}

func NewSubmissionHandler(submissionSvc service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc}
}

// Submit POST /api/v1/videos/submit
func (s *SubmissionHandler) Submit(c *gin.Context) {
	body, err := decodeBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.submissionSvc.Submit(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// decodeBody reads a JSON object or array. Bodies that are not declared as
// JSON, or are empty, decode to an empty object.
func decodeBody(c *gin.Context) (any, error) {
	if c.Request.Body == nil || !isJSONContentType(c.ContentType()) {
		return map[string]any{}, nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, service.ErrBodyTooLarge
		}
		return nil, service.ErrInvalidJSONBody
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	if raw[0] != '{' && raw[0] != '[' {
		return nil, service.ErrInvalidJSONBody
	}

	var body any
	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, service.ErrInvalidJSONBody
	}
	return body, nil
}

func isJSONContentType(contentType string) bool {
	return contentType == gin.MIMEJSON || strings.HasSuffix(contentType, "+json")
}
