package service

import (
	"Attestor/internal/pkg/kafka"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/pkg/solana"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*mongo.MediaSubmission
	findErr error
	// raceWinner is inserted just before Create to simulate a concurrent writer.
	raceWinner *mongo.MediaSubmission
	updates    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*mongo.MediaSubmission{}}
}

func (f *fakeRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeRepo) FindByHash(_ context.Context, videoHash string) (*mongo.MediaSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	m, ok := f.records[videoHash]
	if !ok {
		return nil, mongodriver.ErrNoDocuments
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, submission *mongo.MediaSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceWinner != nil {
		f.records[f.raceWinner.VideoHash] = f.raceWinner
		f.raceWinner = nil
	}
	if _, ok := f.records[submission.VideoHash]; ok {
		return mongo.ErrDuplicateHash
	}
	cp := *submission
	f.records[submission.VideoHash] = &cp
	return nil
}

func (f *fakeRepo) UpdateAnchor(_ context.Context, videoHash string, txID *string, mediaType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.records[videoHash]
	if !ok {
		return mongodriver.ErrNoDocuments
	}
	m.TxID = txID
	m.MediaType = mediaType
	f.updates++
	return nil
}

func (f *fakeRepo) ListAnchored(_ context.Context, limit int64) ([]*mongo.MediaSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*mongo.MediaSubmission
	for _, m := range f.records {
		if m.Anchored() && int64(len(list)) < limit {
			list = append(list, m)
		}
	}
	return list, nil
}

type fakeLedger struct {
	txID      string
	anchorErr error
	verified  bool
	verifyErr error
	anchors   []solana.AnchorRequest
	verifies  []solana.VerifyRequest
}

func (f *fakeLedger) AnchorHash(_ context.Context, req solana.AnchorRequest) (string, error) {
	f.anchors = append(f.anchors, req)
	return f.txID, f.anchorErr
}

func (f *fakeLedger) VerifyAnchoredHash(_ context.Context, req solana.VerifyRequest) (bool, error) {
	f.verifies = append(f.verifies, req)
	return f.verified, f.verifyErr
}

type fakeCache struct {
	entries map[string]string
}

func (f *fakeCache) IsVerified(_ context.Context, txID, fingerprint string) (bool, error) {
	return f.entries[txID] == fingerprint, nil
}

func (f *fakeCache) MarkVerified(_ context.Context, txID, fingerprint string) error {
	f.entries[txID] = fingerprint
	return nil
}

type recordingPublisher struct {
	events []*kafka.SubmissionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *kafka.SubmissionEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(repo *fakeRepo, ledger Ledger, verifyOnRead bool) SubmissionService {
	return NewSubmissionService(newTestValidator(), repo, ledger, nil, nil, verifyOnRead)
}

func strPtr(s string) *string { return &s }

func TestSubmit_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{txID: "sig-1", verified: true}
	svc := newTestService(repo, ledger, true)
	ctx := context.Background()

	first, err := svc.Submit(ctx, validBody(t))
	require.NoError(t, err)
	assert.Equal(t, "verified", first.Status)
	assert.False(t, first.AlreadyExists)
	require.NotNil(t, first.TxID)
	assert.Equal(t, "sig-1", *first.TxID)

	second, err := svc.Submit(ctx, validBody(t))
	require.NoError(t, err)
	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.TxID, second.TxID)

	assert.Len(t, ledger.anchors, 1)
	require.Len(t, ledger.verifies, 1)
	assert.Equal(t, solana.VerifyRequest{TxID: "sig-1", MediaType: "video", VideoHash: testHash, RequestClientID: testClientID}, ledger.verifies[0])
	assert.Equal(t, 0, repo.updates)

	stored := repo.records[testHash]
	assert.Equal(t, testClientID, stored.AuthContext.ClientID)
	assert.Equal(t, "nonce-123", stored.AuthContext.Nonce)
	assert.Equal(t, float64(testNow.UnixMilli()), stored.AuthContext.Timestamp)
	assert.False(t, stored.FirstSeenAt.IsZero())
}

func TestSubmit_AnchorRequestFields(t *testing.T) {
	ledger := &fakeLedger{txID: "sig-1"}
	_, err := newTestService(newFakeRepo(), ledger, false).Submit(context.Background(), validBody(t))
	require.NoError(t, err)

	require.Len(t, ledger.anchors, 1)
	assert.Equal(t, solana.AnchorRequest{
		MediaType:       "video",
		VideoHash:       testHash,
		RequestClientID: testClientID,
		Timestamp:       float64(testNow.UnixMilli()),
		Nonce:           "nonce-123",
	}, ledger.anchors[0])
}

func TestSubmit_ValidationSkipsStorage(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("must not be called")
	ledger := &fakeLedger{}
	body := validBody(t)
	auth(body)["clientId"] = "someone-else"

	_, err := newTestService(repo, ledger, true).Submit(context.Background(), body)
	assert.ErrorIs(t, err, ErrUnknownClientID)
	assert.Empty(t, ledger.anchors)
}

func TestSubmit_DisabledLedger(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, solana.NewDisabledClient(), true)

	resp, err := svc.Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	assert.False(t, resp.AlreadyExists)
	assert.Nil(t, resp.TxID)
	assert.Nil(t, repo.records[testHash].TxID)
}

func TestSubmit_AnchorsExistingUnanchoredRecord(t *testing.T) {
	repo := newFakeRepo()
	repo.records[testHash] = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "audio"}
	ledger := &fakeLedger{txID: "sig-2"}
	pub := &recordingPublisher{}
	svc := NewSubmissionService(newTestValidator(), repo, ledger, nil, pub, true)

	resp, err := svc.Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	assert.True(t, resp.AlreadyExists)
	assert.Equal(t, "sig-2", *resp.TxID)
	assert.Equal(t, "sig-2", *repo.records[testHash].TxID)
	assert.Equal(t, "video", repo.records[testHash].MediaType)
	assert.Empty(t, ledger.verifies)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "submission.anchored", pub.events[0].Type)
}

func TestSubmit_UpdatesMediaTypeOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.records[testHash] = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "audio", TxID: strPtr("sig-1")}
	ledger := &fakeLedger{verified: true}

	resp, err := newTestService(repo, ledger, false).Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	assert.Equal(t, "sig-1", *resp.TxID)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, "video", repo.records[testHash].MediaType)
	assert.Empty(t, ledger.anchors)
	assert.Empty(t, ledger.verifies)
}

func TestSubmit_VerifyOnReadFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.records[testHash] = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "video", TxID: strPtr("forged")}
	ledger := &fakeLedger{verified: false}

	_, err := newTestService(repo, ledger, true).Submit(context.Background(), validBody(t))
	assert.ErrorIs(t, err, ErrAnchorVerifyFailed)
	assert.Empty(t, ledger.anchors)
}

func TestSubmit_VerifyOnReadLedgerError(t *testing.T) {
	repo := newFakeRepo()
	repo.records[testHash] = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "video", TxID: strPtr("sig-1")}

	_, err := newTestService(repo, &fakeLedger{verifyErr: errors.New("rpc down")}, true).Submit(context.Background(), validBody(t))
	assert.ErrorIs(t, err, ErrAnchorVerifyUnhealthy)

	_, err = newTestService(repo, solana.NewDisabledClient(), true).Submit(context.Background(), validBody(t))
	assert.ErrorIs(t, err, ErrAnchorVerifyUnhealthy)
}

func TestSubmit_VerifyCache(t *testing.T) {
	repo := newFakeRepo()
	repo.records[testHash] = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "video", TxID: strPtr("sig-1")}
	ledger := &fakeLedger{verified: true}
	cache := &fakeCache{entries: map[string]string{}}
	svc := NewSubmissionService(newTestValidator(), repo, ledger, cache, nil, true)

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), validBody(t))
		require.NoError(t, err)
	}
	assert.Len(t, ledger.verifies, 1)
	assert.Equal(t, "video|"+testHash+"|"+testClientID, cache.entries["sig-1"])
}

func TestSubmit_AnchorError(t *testing.T) {
	repo := newFakeRepo()
	_, err := newTestService(repo, &fakeLedger{anchorErr: errors.New("blockhash not found")}, true).Submit(context.Background(), validBody(t))
	assert.ErrorIs(t, err, ErrAnchorFailed)
	assert.Empty(t, repo.records)
}

func TestSubmit_StorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("server selection timeout")

	_, err := newTestService(repo, &fakeLedger{}, true).Submit(context.Background(), validBody(t))
	assert.ErrorIs(t, err, ErrDatabase)
}

func TestSubmit_DuplicateKeyRace(t *testing.T) {
	repo := newFakeRepo()
	repo.raceWinner = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "audio", TxID: strPtr("winner-sig")}
	ledger := &fakeLedger{txID: "loser-sig"}
	pub := &recordingPublisher{}
	svc := NewSubmissionService(newTestValidator(), repo, ledger, nil, pub, true)

	resp, err := svc.Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	assert.True(t, resp.AlreadyExists)
	assert.Equal(t, "winner-sig", *resp.TxID)
	assert.Equal(t, "audio", repo.records[testHash].MediaType)
	assert.Empty(t, pub.events)
}

func TestSubmit_DuplicateKeyRaceUnanchoredWinner(t *testing.T) {
	repo := newFakeRepo()
	repo.raceWinner = &mongo.MediaSubmission{VideoHash: testHash, MediaType: "video"}

	resp, err := newTestService(repo, solana.NewDisabledClient(), true).Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	assert.True(t, resp.AlreadyExists)
	assert.Nil(t, resp.TxID)
}

func TestSubmit_PublishesCreated(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewSubmissionService(newTestValidator(), newFakeRepo(), &fakeLedger{txID: "sig-1"}, nil, pub, true)

	_, err := svc.Submit(context.Background(), validBody(t))
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "submission.created", pub.events[0].Type)
	assert.Equal(t, testHash, pub.events[0].VideoHash)
	assert.Equal(t, "sig-1", *pub.events[0].TxID)
}

func TestReverify(t *testing.T) {
	ledger := &fakeLedger{verified: true}
	svc := newTestService(newFakeRepo(), ledger, true)

	ok, err := svc.Reverify(context.Background(), &mongo.MediaSubmission{VideoHash: testHash})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ledger.verifies)

	ok, err = svc.Reverify(context.Background(), &mongo.MediaSubmission{
		VideoHash:   testHash,
		MediaType:   "audio",
		TxID:        strPtr("sig-1"),
		AuthContext: mongo.AuthContext{ClientID: testClientID},
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "audio", ledger.verifies[0].MediaType)
}
