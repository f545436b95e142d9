package service

import (
	"Attestor/internal/api/dto"
	"Attestor/internal/pkg/consts"
	"Attestor/internal/pkg/kafka"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/pkg/redis"
	"Attestor/internal/pkg/solana"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// Ledger is the anchoring client as seen by the orchestrator.
type Ledger interface {
	AnchorHash(ctx context.Context, req solana.AnchorRequest) (string, error)
	VerifyAnchoredHash(ctx context.Context, req solana.VerifyRequest) (bool, error)
}

type SubmissionService interface {
	Submit(ctx context.Context, body any) (*dto.SubmitResponse, error)
	// Reverify checks a stored anchor against the ledger using the record's own fields.
	Reverify(ctx context.Context, submission *mongo.MediaSubmission) (bool, error)
}

type SubmissionServiceImpl struct {
	validator    *SubmissionValidator
	repo         mongo.MediaSubmissionRepo
	ledger       Ledger
	cache        redis.VerifyCache
	publisher    kafka.EventPublisher
	verifyOnRead bool
}

func NewSubmissionService(
	validator *SubmissionValidator,
	repo mongo.MediaSubmissionRepo,
	ledger Ledger,
	cache redis.VerifyCache,
	publisher kafka.EventPublisher,
	verifyOnRead bool,
) SubmissionService {
	if cache == nil {
		cache = redis.NoopVerifyCache{}
	}
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &SubmissionServiceImpl{
		validator:    validator,
		repo:         repo,
		ledger:       ledger,
		cache:        cache,
		publisher:    publisher,
		verifyOnRead: verifyOnRead,
	}
}

func (s *SubmissionServiceImpl) Submit(ctx context.Context, body any) (*dto.SubmitResponse, error) {
	req, err := s.validator.Validate(body)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByHash(ctx, req.VideoHash)
	if err != nil && !errors.Is(err, mongodriver.ErrNoDocuments) {
		log.ErrorContext(ctx, "Find media submission failed", "video_hash", req.VideoHash, "err", err)
		return nil, ErrDatabase
	}

	alreadyExists := existing != nil
	var txID *string
	if alreadyExists && existing.Anchored() {
		txID = existing.TxID
		if s.verifyOnRead {
			if err = s.verifyStored(ctx, *txID, req); err != nil {
				return nil, err
			}
		}
	}

	anchoredNow := false
	if txID == nil {
		signature, err := s.ledger.AnchorHash(ctx, solana.AnchorRequest{
			MediaType:       req.MediaType,
			VideoHash:       req.VideoHash,
			RequestClientID: req.Auth.ClientID,
			Timestamp:       req.Auth.Timestamp,
			Nonce:           req.Auth.Nonce,
		})
		if err != nil {
			log.ErrorContext(ctx, "Solana transaction error", "video_hash", req.VideoHash, "err", err)
			return nil, ErrAnchorFailed
		}
		if signature != "" {
			txID = &signature
			anchoredNow = true
		}
	}

	if !alreadyExists {
		txID, alreadyExists, err = s.create(ctx, req, txID, anchoredNow)
		if err != nil {
			return nil, err
		}
	} else if !sameTxID(existing.TxID, txID) || existing.MediaType != req.MediaType {
		if err = s.repo.UpdateAnchor(ctx, req.VideoHash, txID, req.MediaType); err != nil {
			log.ErrorContext(ctx, "Update media submission failed", "video_hash", req.VideoHash, "err", err)
			return nil, ErrDatabase
		}
		if anchoredNow {
			s.publish(ctx, consts.EventSubmissionAnchored, req, txID)
		}
	}

	return &dto.SubmitResponse{
		Status:        consts.SubmissionStatusVerified,
		AlreadyExists: alreadyExists,
		TxID:          txID,
	}, nil
}

// create inserts a new record. A duplicate key means a concurrent request won
// the race; its stored state is returned instead.
func (s *SubmissionServiceImpl) create(ctx context.Context, req *dto.SubmissionRequest, txID *string, anchoredNow bool) (*string, bool, error) {
	submission := &mongo.MediaSubmission{
		VideoHash:   req.VideoHash,
		MediaType:   req.MediaType,
		Metadata:    req.Metadata,
		TxID:        txID,
		FirstSeenAt: time.Now().UTC(),
	}
	if err := copier.Copy(&submission.AuthContext, &req.Auth); err != nil {
		return nil, false, err
	}

	err := s.repo.Create(ctx, submission)
	if err == nil {
		s.publish(ctx, consts.EventSubmissionCreated, req, txID)
		return txID, false, nil
	}
	if !errors.Is(err, mongo.ErrDuplicateHash) {
		log.ErrorContext(ctx, "Create media submission failed", "video_hash", req.VideoHash, "err", err)
		return nil, false, ErrDatabase
	}

	winner, err := s.repo.FindByHash(ctx, req.VideoHash)
	if err != nil && !errors.Is(err, mongodriver.ErrNoDocuments) {
		log.ErrorContext(ctx, "Re-read media submission failed", "video_hash", req.VideoHash, "err", err)
		return nil, false, ErrDatabase
	}
	if winner == nil {
		return nil, true, nil
	}

	if winner.MediaType != req.MediaType {
		log.WarnContext(ctx, "Concurrent submission stored a different mediaType",
			"video_hash", req.VideoHash,
			"stored", winner.MediaType,
			"requested", req.MediaType,
		)
	}
	if anchoredNow && !sameTxID(winner.TxID, txID) {
		log.WarnContext(ctx, "Anchor broadcast by losing concurrent submission",
			"video_hash", req.VideoHash,
			"orphan_tx_id", *txID,
		)
	}
	if winner.Anchored() {
		return winner.TxID, true, nil
	}
	return nil, true, nil
}

func (s *SubmissionServiceImpl) verifyStored(ctx context.Context, txID string, req *dto.SubmissionRequest) error {
	fingerprint := verifyFingerprint(req.MediaType, req.VideoHash, req.Auth.ClientID)

	cached, err := s.cache.IsVerified(ctx, txID, fingerprint)
	if err != nil {
		log.WarnContext(ctx, "Verify cache lookup failed", "tx_id", txID, "err", err)
	}
	if cached {
		return nil
	}

	ok, err := s.ledger.VerifyAnchoredHash(ctx, solana.VerifyRequest{
		TxID:            txID,
		MediaType:       req.MediaType,
		VideoHash:       req.VideoHash,
		RequestClientID: req.Auth.ClientID,
	})
	if err != nil {
		log.ErrorContext(ctx, "Solana verification error", "tx_id", txID, "err", err)
		return ErrAnchorVerifyUnhealthy
	}
	if !ok {
		log.ErrorContext(ctx, "Stored anchor failed on-chain verification", "tx_id", txID, "video_hash", req.VideoHash)
		return ErrAnchorVerifyFailed
	}

	if err = s.cache.MarkVerified(ctx, txID, fingerprint); err != nil {
		log.WarnContext(ctx, "Verify cache write failed", "tx_id", txID, "err", err)
	}
	return nil
}

func (s *SubmissionServiceImpl) Reverify(ctx context.Context, submission *mongo.MediaSubmission) (bool, error) {
	if !submission.Anchored() {
		return false, nil
	}
	return s.ledger.VerifyAnchoredHash(ctx, solana.VerifyRequest{
		TxID:            *submission.TxID,
		MediaType:       submission.MediaType,
		VideoHash:       submission.VideoHash,
		RequestClientID: submission.AuthContext.ClientID,
	})
}

func (s *SubmissionServiceImpl) publish(ctx context.Context, eventType string, req *dto.SubmissionRequest, txID *string) {
	err := s.publisher.Publish(ctx, &kafka.SubmissionEvent{
		Type:       eventType,
		VideoHash:  req.VideoHash,
		MediaType:  req.MediaType,
		TxID:       txID,
		ClientID:   req.Auth.ClientID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.WarnContext(ctx, "Publish submission event failed", "type", eventType, "err", err)
	}
}

func sameTxID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func verifyFingerprint(mediaType, videoHash, clientID string) string {
	return strings.Join([]string{mediaType, videoHash, clientID}, "|")
}
