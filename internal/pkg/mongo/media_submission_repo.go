package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateHash 唯一索引冲突
var ErrDuplicateHash = errors.New("media submission with this hash already exists")

type MediaSubmissionRepo interface {
	EnsureIndexes(ctx context.Context) error
	FindByHash(ctx context.Context, videoHash string) (*MediaSubmission, error)
	Create(ctx context.Context, submission *MediaSubmission) error
	UpdateAnchor(ctx context.Context, videoHash string, txID *string, mediaType string) error
	ListAnchored(ctx context.Context, limit int64) ([]*MediaSubmission, error)
}

type mediaSubmissionRepoImpl struct {
	col *mongo.Collection
}

func NewMediaSubmissionRepo(db *mongo.Database, collection string) MediaSubmissionRepo {
	return &mediaSubmissionRepoImpl{
		col: db.Collection(collection),
	}
}

// EnsureIndexes 创建 videoHash 唯一索引
func (s *mediaSubmissionRepoImpl) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "videoHash", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("videoHash_1"),
	})
	return err
}

// FindByHash returns mongo.ErrNoDocuments when the hash has not been seen.
func (s *mediaSubmissionRepoImpl) FindByHash(ctx context.Context, videoHash string) (*MediaSubmission, error) {
	var m MediaSubmission
	err := s.col.FindOne(ctx, bson.M{"videoHash": videoHash}).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create 插入新记录, 唯一索引冲突时返回 ErrDuplicateHash
func (s *mediaSubmissionRepoImpl) Create(ctx context.Context, submission *MediaSubmission) error {
	if submission.FirstSeenAt.IsZero() {
		submission.FirstSeenAt = time.Now().UTC()
	}
	res, err := s.col.InsertOne(ctx, submission)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateHash
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		submission.ID = id
	}
	return nil
}

// UpdateAnchor only touches txId and mediaType.
func (s *mediaSubmissionRepoImpl) UpdateAnchor(ctx context.Context, videoHash string, txID *string, mediaType string) error {
	filter := bson.M{"videoHash": videoHash}
	update := bson.M{"$set": bson.M{"txId": txID, "mediaType": mediaType}}
	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListAnchored 按首次提交时间倒序获取已锚定记录
func (s *mediaSubmissionRepoImpl) ListAnchored(ctx context.Context, limit int64) ([]*MediaSubmission, error) {
	filter := bson.M{"txId": bson.M{"$type": "string"}}
	opts := options.Find().
		SetSort(bson.D{{Key: "firstSeenAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*MediaSubmission
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
