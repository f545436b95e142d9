package solana

import (
	"Attestor/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"os"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

var (
	ErrVerificationUnavailable = errors.New("solana verification is unavailable")
	ErrTransactionFailed       = errors.New("solana transaction failed")
	ErrBlockhashExpired        = errors.New("solana blockhash expired before confirmation")
	ErrConfirmationTimeout     = errors.New("solana transaction not confirmed in time")
)

type State int

const (
	StateDisabled State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "disabled"
}

// AnchorRequest 锚定输入
type AnchorRequest struct {
	MediaType       string
	VideoHash       string
	RequestClientID string
	Timestamp       float64
	Nonce           string
}

// VerifyRequest 链上校验输入
type VerifyRequest struct {
	TxID            string
	MediaType       string
	VideoHash       string
	RequestClientID string
}

// ready holds the live connection and signer; a nil *ready means Disabled.
type ready struct {
	rpc    RPC
	signer *Keypair
}

// Client 链上锚定客户端，进程启动时构造一次
type Client struct {
	ready        *ready
	pollInterval time.Duration
	maxAttempts  int
}

type Option func(*Client)

func WithConfirmPolling(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
	}
}

// NewClient loads key material and connects to the configured RPC endpoint.
// Failures return an error only when cfg.Required is set; otherwise the
// client is returned in the Disabled state.
func NewClient(cfg config.SolanaConfig) (*Client, error) {
	opts := []Option{WithConfirmPolling(time.Duration(cfg.ConfirmPollMillis)*time.Millisecond, cfg.ConfirmMaxAttempts)}

	signer, err := loadSigner(cfg)
	if err != nil {
		if cfg.Required {
			return nil, err
		}
		log.Warn("Solana integration disabled", "err", err)
		return NewDisabledClient(), nil
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := NewReadyClient(NewRPCClient(cfg.RPCURL, timeout), signer, opts...)
	log.Info("Solana integration enabled", "rpc", cfg.RPCURL, "signer", signer.PublicKey().String())
	return c, nil
}

func NewDisabledClient() *Client {
	return &Client{}
}

func NewReadyClient(client RPC, signer *Keypair, opts ...Option) *Client {
	c := &Client{
		ready:        &ready{rpc: client, signer: signer},
		pollInterval: 500 * time.Millisecond,
		maxAttempts:  240,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func loadSigner(cfg config.SolanaConfig) (*Keypair, error) {
	material := cfg.PrivateKeyJSON
	if material == "" {
		raw, err := os.ReadFile(cfg.KeypairPath)
		if err != nil {
			return nil, fmt.Errorf("set SOLANA_PRIVATE_KEY_JSON or provide a readable SOLANA_KEYPAIR_PATH: %w", err)
		}
		material = strings.TrimSpace(string(raw))
	}
	return ParseKeypair(material)
}

func (c *Client) State() State {
	if c == nil || c.ready == nil {
		return StateDisabled
	}
	return StateReady
}

// SignerAddress 返回签名账户地址, Disabled 时为空
func (c *Client) SignerAddress() string {
	if c.State() != StateReady {
		return ""
	}
	return c.ready.signer.PublicKey().String()
}

// AnchorHash writes the memo transaction and waits for confirmed commitment.
// A Disabled client returns "" and no error.
func (c *Client) AnchorHash(ctx context.Context, req AnchorRequest) (string, error) {
	if c.State() != StateReady {
		return "", nil
	}

	memo, err := NewMemoPayload(req).Encode()
	if err != nil {
		return "", errors.Wrap(err, "encode memo")
	}

	latest, err := c.ready.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return "", err
	}
	if latest == nil || latest.Value == nil {
		return "", errors.New("solana rpc returned no blockhash")
	}

	tx, err := NewMemoTransaction(c.ready.signer, latest.Value.Blockhash, memo)
	if err != nil {
		return "", err
	}

	signature, err := c.ready.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", err
	}
	if signature.IsZero() {
		signature = tx.Signatures[0]
	}

	if err = c.awaitConfirmation(ctx, signature, latest.Value.LastValidBlockHeight); err != nil {
		return "", errors.Wrapf(err, "confirm %s", signature)
	}

	log.InfoContext(ctx, "Hash anchored on Solana", "tx_id", signature.String(), "video_hash", req.VideoHash)
	return signature.String(), nil
}

func (c *Client) awaitConfirmation(ctx context.Context, signature sol.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		statuses, err := c.ready.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil && !errors.Is(err, rpc.ErrNotFound) {
			return err
		}
		if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return errors.Wrap(ErrTransactionFailed, fmt.Sprint(status.Err))
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		height, err := c.ready.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		if height > lastValidBlockHeight {
			return ErrBlockhashExpired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ErrConfirmationTimeout
}

// VerifyAnchoredHash checks that txId was signed by this service and carries
// a memo matching the expected media type, hash and client id. An unknown
// transaction yields false without error.
func (c *Client) VerifyAnchoredHash(ctx context.Context, req VerifyRequest) (bool, error) {
	if c.State() != StateReady {
		return false, ErrVerificationUnavailable
	}

	signature, err := sol.SignatureFromBase58(req.TxID)
	if err != nil {
		// Not a transaction signature, so it cannot point at our memo.
		return false, nil
	}

	tx, err := getParsedTransaction(ctx, c.ready.rpc, signature)
	if err != nil {
		return false, err
	}
	if tx == nil {
		return false, nil
	}

	msg := tx.Transaction.Message
	if !msg.HasAccount(c.ready.signer.PublicKey()) {
		return false, nil
	}

	for _, ix := range msg.Instructions {
		text, ok := ix.MemoText()
		if !ok {
			continue
		}
		if memoMatches(text, req) {
			return true, nil
		}
	}
	return false, nil
}
