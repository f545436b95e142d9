package solana

import (
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// NewMemoTransaction builds a legacy transaction paid and signed by signer
// that carries memo in a single spl-memo instruction with no accounts.
func NewMemoTransaction(signer *Keypair, recentBlockhash sol.Hash, memo []byte) (*sol.Transaction, error) {
	ix := sol.NewInstruction(sol.MemoProgramID, sol.AccountMetaSlice{}, memo)

	tx, err := sol.NewTransaction(
		[]sol.Instruction{ix},
		recentBlockhash,
		sol.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "build memo transaction")
	}
	if _, err = tx.Sign(signer.signerFor); err != nil {
		return nil, errors.Wrap(err, "sign memo transaction")
	}
	return tx, nil
}
