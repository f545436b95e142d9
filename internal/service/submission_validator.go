package service

import (
	"Attestor/internal/api/config"
	"Attestor/internal/api/dto"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/pkg/security"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var sha256HexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// SubmissionValidator checks a decoded submit body field by field and
// authenticates it. The first failing rule decides the error.
type SubmissionValidator struct {
	clientID  string
	secret    string
	maxSkewMs int64
	now       func() time.Time
	validate  *validator.Validate
}

func NewSubmissionValidator(cfg config.AuthConfig) *SubmissionValidator {
	v := validator.New()
	_ = v.RegisterValidation("sha256hex", func(fl validator.FieldLevel) bool {
		return sha256HexPattern.MatchString(fl.Field().String())
	})
	return &SubmissionValidator{
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		maxSkewMs: cfg.MaxClockSkewMs,
		now:       time.Now,
		validate:  v,
	}
}

// WithClock replaces the wall clock used for the skew window.
func (v *SubmissionValidator) WithClock(now func() time.Time) *SubmissionValidator {
	v.now = now
	return v
}

func (v *SubmissionValidator) Validate(body any) (*dto.SubmissionRequest, error) {
	fields, _ := body.(map[string]any)

	videoHash, ok := nonEmptyString(fields["videoHash"])
	if !ok {
		return nil, ErrVideoHashRequired
	}

	metadata, ok := fields["metadata"].(map[string]any)
	if !ok || metadata == nil {
		return nil, ErrMetadataRequired
	}

	req := &dto.SubmissionRequest{MediaType: mongo.MediaTypeVideo, Metadata: metadata}
	if raw, present := fields["mediaType"]; present {
		mediaType, isString := raw.(string)
		if !isString {
			return nil, ErrMediaTypeInvalid
		}
		req.MediaType = mediaType
	}
	if err := v.validate.StructPartial(req, "MediaType"); err != nil {
		return nil, ErrMediaTypeInvalid
	}

	auth, ok := authFields(fields["auth"])
	if !ok {
		return nil, ErrAuthRequired
	}

	if req.Auth.ClientID, ok = nonEmptyString(auth["clientId"]); !ok {
		return nil, ErrClientIDRequired
	}
	if req.Auth.ClientID != v.clientID {
		return nil, ErrUnknownClientID
	}

	timestamp, ok := auth["timestamp"].(float64)
	if !ok || math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return nil, ErrTimestampInvalid
	}
	req.Auth.Timestamp = timestamp

	if req.Auth.Nonce, ok = nonEmptyString(auth["nonce"]); !ok {
		return nil, ErrNonceRequired
	}
	if req.Auth.RequestSignature, ok = nonEmptyString(auth["requestSignature"]); !ok {
		return nil, ErrSignatureRequired
	}

	now := float64(v.now().UnixMilli())
	if math.Abs(now-timestamp) > float64(v.maxSkewMs) {
		return nil, ErrClockSkew
	}

	req.VideoHash = normalizeHash(videoHash)
	if err := v.validate.StructPartial(req, "VideoHash"); err != nil {
		return nil, ErrVideoHashInvalid
	}

	target, err := security.BuildSignTarget(req.VideoHash, req.MediaType, req.Metadata, req.Auth.Timestamp, req.Auth.Nonce)
	if err != nil {
		return nil, ErrSignatureInvalid
	}
	if !security.Verify(req.Auth.RequestSignature, security.Sign(target, v.secret)) {
		return nil, ErrSignatureInvalid
	}

	return req, nil
}

func nonEmptyString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok && s != ""
}

// authFields accepts any JSON object or array; an array carries no fields.
func authFields(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, v != nil
	case []any:
		return map[string]any{}, true
	default:
		return nil, false
	}
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimFunc(hash, isTrimSpace))
}

// isTrimSpace reports the WhiteSpace and LineTerminator code points that
// String.prototype.trim strips. U+0085 is deliberately absent.
func isTrimSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00A0', '\u1680', '\u2028', '\u2029', '\u202F', '\u205F', '\u3000', '\uFEFF':
		return true
	}
	return r >= '\u2000' && r <= '\u200A'
}
