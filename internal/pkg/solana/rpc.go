package solana

import (
	"context"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/go-resty/resty/v2"
)

// RPC is the subset of the Solana JSON-RPC API the anchoring client needs.
// *rpc.Client satisfies it.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *sol.Transaction, opts rpc.TransactionOpts) (sol.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...sol.Signature) (*rpc.GetSignatureStatusesResult, error)
	RPCCallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error
}

var _ RPC = (*rpc.Client)(nil)

// NewRPCClient 基于 resty 的 http.Client 构造 solana-go RPC 客户端
func NewRPCClient(endpoint string, timeout time.Duration) *rpc.Client {
	httpClient := resty.New().SetTimeout(timeout).GetClient()
	return rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	}))
}

// getParsedTransaction fetches signature with jsonParsed encoding at
// confirmed commitment. A transaction the node does not know yields nil.
func getParsedTransaction(ctx context.Context, client RPC, signature sol.Signature) (*ParsedTransaction, error) {
	var tx *ParsedTransaction
	err := client.RPCCallForInto(ctx, &tx, "getTransaction", []interface{}{
		signature.String(),
		map[string]interface{}{
			"encoding":                       sol.EncodingJSONParsed,
			"commitment":                     rpc.CommitmentConfirmed,
			"maxSupportedTransactionVersion": 0,
		},
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}
