package service

import (
	"errors"
)

const (
	BadRequest            = 400
	Unauthorized          = 401
	Conflict              = 409
	RequestEntityTooLarge = 413
	InternalServerError   = 500
	BadGateway            = 502
)

var (
	ErrInvalidJSONBody       = errors.New("Invalid JSON body")
	ErrBodyTooLarge          = errors.New("Request body too large")
	ErrVideoHashRequired     = errors.New("videoHash is required and must be a string")
	ErrMetadataRequired      = errors.New("metadata is required and must be an object")
	ErrMediaTypeInvalid      = errors.New("mediaType must be either 'video' or 'audio'")
	ErrAuthRequired          = errors.New("auth is required")
	ErrClientIDRequired      = errors.New("auth.clientId is required")
	ErrUnknownClientID       = errors.New("Unknown clientId")
	ErrTimestampInvalid      = errors.New("auth.timestamp must be a unix time in milliseconds")
	ErrNonceRequired         = errors.New("auth.nonce is required")
	ErrSignatureRequired     = errors.New("auth.requestSignature is required")
	ErrClockSkew             = errors.New("Request timestamp is outside allowed clock skew")
	ErrVideoHashInvalid      = errors.New("videoHash must be a valid SHA-256 hex string")
	ErrSignatureInvalid      = errors.New("Invalid requestSignature")
	ErrAnchorVerifyFailed    = errors.New("Stored anchor failed on-chain verification")
	ErrAnchorVerifyUnhealthy = errors.New("Failed to verify anchored hash on Solana")
	ErrAnchorFailed          = errors.New("Failed to anchor hash on Solana")
	ErrDatabase              = errors.New("Database operation failed")
	UnExpectedError          = errors.New("Internal server error")
)

var ErrorMap = map[error]int{
	ErrInvalidJSONBody:       BadRequest,
	ErrBodyTooLarge:          RequestEntityTooLarge,
	ErrVideoHashRequired:     BadRequest,
	ErrMetadataRequired:      BadRequest,
	ErrMediaTypeInvalid:      BadRequest,
	ErrAuthRequired:          BadRequest,
	ErrClientIDRequired:      BadRequest,
	ErrUnknownClientID:       Unauthorized,
	ErrTimestampInvalid:      BadRequest,
	ErrNonceRequired:         BadRequest,
	ErrSignatureRequired:     BadRequest,
	ErrClockSkew:             Unauthorized,
	ErrVideoHashInvalid:      BadRequest,
	ErrSignatureInvalid:      Unauthorized,
	ErrAnchorVerifyFailed:    Conflict,
	ErrAnchorVerifyUnhealthy: BadGateway,
	ErrAnchorFailed:          BadGateway,
	ErrDatabase:              InternalServerError,
	UnExpectedError:          InternalServerError,
}
