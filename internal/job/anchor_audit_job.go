package job

import (
	"Attestor/internal/pkg/logger"
	"Attestor/internal/pkg/mongo"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// Reverifier checks a stored anchor against the ledger.
type Reverifier interface {
	Reverify(ctx context.Context, submission *mongo.MediaSubmission) (bool, error)
}

type AuditResult struct {
	Checked    int
	Mismatched []string
	Failed     int
}

// AnchorAuditJob re-verifies the most recently submitted anchored records.
type AnchorAuditJob struct {
	repo       mongo.MediaSubmissionRepo
	reverifier Reverifier
	batchSize  int64
}

func NewAnchorAuditJob(repo mongo.MediaSubmissionRepo, reverifier Reverifier, batchSize int64) *AnchorAuditJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &AnchorAuditJob{repo: repo, reverifier: reverifier, batchSize: batchSize}
}

func (s *AnchorAuditJob) Run() {
	ctx := logger.WithTraceID(context.Background(), uuid.New().String())
	log.InfoContext(ctx, "start anchor audit job")

	res, err := s.RunOnce(ctx)
	if err != nil {
		log.ErrorContext(ctx, "anchor audit job aborted", "err", err)
		return
	}
	log.InfoContext(ctx, "anchor audit job finished",
		"checked", res.Checked,
		"mismatched", len(res.Mismatched),
		"failed", res.Failed,
	)
}

// RunOnce 单次巡检, 校验失败的记录只记录日志, 不修改数据
func (s *AnchorAuditJob) RunOnce(ctx context.Context) (*AuditResult, error) {
	list, err := s.repo.ListAnchored(ctx, s.batchSize)
	if err != nil {
		return nil, err
	}

	res := &AuditResult{}
	for _, submission := range list {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !submission.Anchored() {
			continue
		}
		ok, err := s.reverifier.Reverify(ctx, submission)
		if err != nil {
			res.Failed++
			log.WarnContext(ctx, "anchor audit verification error", "video_hash", submission.VideoHash, "err", err)
			continue
		}
		res.Checked++
		if !ok {
			res.Mismatched = append(res.Mismatched, submission.VideoHash)
			log.ErrorContext(ctx, "stored anchor failed on-chain verification",
				"video_hash", submission.VideoHash,
				"tx_id", *submission.TxID,
			)
		}
	}
	return res, nil
}
