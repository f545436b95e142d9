package solana

import (
	"bytes"

	sol "github.com/gagliardetto/solana-go"
	"github.com/goccy/go-json"
	"github.com/mr-tron/base58"
)

// ParsedTransaction getTransaction(jsonParsed) 返回结构的子集
type ParsedTransaction struct {
	Slot        uint64 `json:"slot"`
	Transaction struct {
		Signatures []string      `json:"signatures"`
		Message    ParsedMessage `json:"message"`
	} `json:"transaction"`
}

type ParsedMessage struct {
	AccountKeys  []ParsedAccountKey  `json:"accountKeys"`
	Instructions []ParsedInstruction `json:"instructions"`
}

// ParsedAccountKey accepts both the object form {"pubkey":...} and a bare string.
type ParsedAccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

func (k *ParsedAccountKey) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &k.Pubkey)
	}
	type plain ParsedAccountKey
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = ParsedAccountKey(p)
	return nil
}

type ParsedInstruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
	Data      string          `json:"data"`
}

// MemoText extracts the memo string from a spl-memo instruction. The parsed
// field is either the memo itself or an object with a memo field; a node
// that left the instruction unparsed still returns its base58 data.
func (ix ParsedInstruction) MemoText() (string, bool) {
	if ix.Program != "spl-memo" && ix.ProgramID != sol.MemoProgramID.String() {
		return "", false
	}
	if len(ix.Parsed) == 0 {
		raw, err := base58.Decode(ix.Data)
		if err != nil || len(raw) == 0 {
			return "", false
		}
		return string(raw), true
	}

	var text string
	if err := json.Unmarshal(ix.Parsed, &text); err == nil {
		return text, text != ""
	}

	var obj struct {
		Memo *string `json:"memo"`
	}
	if err := json.Unmarshal(ix.Parsed, &obj); err == nil && obj.Memo != nil {
		return *obj.Memo, *obj.Memo != ""
	}
	return "", false
}

// HasAccount 判断交易账户列表是否包含 key
func (m ParsedMessage) HasAccount(key sol.PublicKey) bool {
	want := key.String()
	for _, k := range m.AccountKeys {
		if k.Pubkey == want {
			return true
		}
	}
	return false
}
