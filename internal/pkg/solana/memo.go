package solana

import (
	"bytes"

	"github.com/goccy/go-json"
)

const memoNonceLen = 16

// MemoPayload 链上 memo 内容, 字段顺序即序列化顺序
type MemoPayload struct {
	MediaType string  `json:"m"`
	VideoHash string  `json:"h"`
	ClientID  string  `json:"c"`
	Timestamp float64 `json:"t"`
	Nonce     string  `json:"n"`
}

// NewMemoPayload keeps only the first 16 characters of the nonce.
func NewMemoPayload(req AnchorRequest) MemoPayload {
	nonce := []rune(req.Nonce)
	if len(nonce) > memoNonceLen {
		nonce = nonce[:memoNonceLen]
	}
	return MemoPayload{
		MediaType: req.MediaType,
		VideoHash: req.VideoHash,
		ClientID:  req.RequestClientID,
		Timestamp: req.Timestamp,
		Nonce:     string(nonce),
	}
}

func (p MemoPayload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// memoMatches reports whether text is a JSON memo whose m, h and c fields
// equal the expected values.
func memoMatches(text string, want VerifyRequest) bool {
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return false
	}
	m, okM := payload["m"].(string)
	h, okH := payload["h"].(string)
	c, okC := payload["c"].(string)
	return okM && okH && okC &&
		m == want.MediaType && h == want.VideoHash && c == want.RequestClientID
}
