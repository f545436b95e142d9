package dto

// SubmissionRequest 已通过校验的提交请求, VideoHash 已规范化
type SubmissionRequest struct {
	VideoHash string         `json:"videoHash" validate:"sha256hex"`
	MediaType string         `json:"mediaType" validate:"oneof=video audio"`
	Metadata  map[string]any `json:"metadata"`
	Auth      SubmissionAuth `json:"auth"`
}

type SubmissionAuth struct {
	ClientID         string  `json:"clientId"`
	Timestamp        float64 `json:"timestamp"`
	Nonce            string  `json:"nonce"`
	RequestSignature string  `json:"requestSignature"`
}

// SubmitResponse TxID 为 nil 时序列化为 null
type SubmitResponse struct {
	Status        string  `json:"status"`
	AlreadyExists bool    `json:"alreadyExists"`
	TxID          *string `json:"txId"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
