package consts

const (
	SubmissionStatusVerified = "verified"
)

const (
	EventSubmissionCreated  = "submission.created"
	EventSubmissionAnchored = "submission.anchored"
)
