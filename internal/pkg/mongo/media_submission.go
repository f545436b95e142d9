package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// AuthContext 提交时的认证快照，仅用于审计
type AuthContext struct {
	ClientID  string  `bson:"clientId" json:"clientId"`
	Timestamp float64 `bson:"timestamp" json:"timestamp"`
	Nonce     string  `bson:"nonce" json:"nonce"`
}

// MediaSubmission 媒体哈希提交记录, videoHash 唯一
type MediaSubmission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VideoHash   string             `bson:"videoHash" json:"videoHash"`
	MediaType   string             `bson:"mediaType" json:"mediaType"`
	Metadata    map[string]any     `bson:"metadata" json:"metadata"`
	TxID        *string            `bson:"txId" json:"txId"`
	AuthContext AuthContext        `bson:"authContext" json:"authContext"`
	FirstSeenAt time.Time          `bson:"firstSeenAt" json:"firstSeenAt"`
}

// Anchored reports whether the record already has a ledger transaction.
func (m *MediaSubmission) Anchored() bool {
	return m.TxID != nil && *m.TxID != ""
}
