package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math"

	sol "github.com/gagliardetto/solana-go"
	"github.com/goccy/go-json"
)

var (
	ErrKeyMaterialNotJSON   = errors.New("solana key material must be a valid JSON array")
	ErrKeyMaterialLength    = errors.New("solana key material must be an array of exactly 64 numbers")
	ErrKeyMaterialByteRange = errors.New("solana key material must contain byte values between 0 and 255")
	ErrKeypairMismatch      = errors.New("solana secret key does not match its embedded public key")
)

// Keypair 服务端签名身份
type Keypair struct {
	private sol.PrivateKey
	public  sol.PublicKey
}

// ParseKeypair parses the solana-keygen file format: a JSON array of 64
// integers holding the 32-byte seed followed by the 32-byte public key.
func ParseKeypair(material string) (*Keypair, error) {
	var parsed any
	if err := json.Unmarshal([]byte(material), &parsed); err != nil {
		return nil, ErrKeyMaterialNotJSON
	}

	values, ok := parsed.([]any)
	if !ok || len(values) != ed25519.PrivateKeySize {
		return nil, ErrKeyMaterialLength
	}

	secret := make([]byte, ed25519.PrivateKeySize)
	for i, v := range values {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < 0 || f > 255 {
			return nil, ErrKeyMaterialByteRange
		}
		secret[i] = byte(f)
	}

	return KeypairFromSecretKey(secret)
}

// KeypairFromSecretKey checks that the trailing public key matches the seed.
func KeypairFromSecretKey(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, ErrKeyMaterialLength
	}
	private := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	derived := private.Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, secret[ed25519.SeedSize:]) {
		return nil, ErrKeypairMismatch
	}

	return &Keypair{
		private: sol.PrivateKey(private),
		public:  sol.PublicKeyFromBytes(derived),
	}, nil
}

// NewKeypairFromSeed 由 32 字节种子生成密钥对
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	return KeypairFromSecretKey(ed25519.NewKeyFromSeed(seed))
}

func (k *Keypair) PublicKey() sol.PublicKey {
	return k.public
}

// signerFor is the key getter handed to Transaction.Sign.
func (k *Keypair) signerFor(key sol.PublicKey) *sol.PrivateKey {
	if !key.Equals(k.public) {
		return nil
	}
	return &k.private
}
