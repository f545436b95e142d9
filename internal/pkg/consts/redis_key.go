package consts

const (
	AnchorVerifiedKey = "anchor:verified:"
)
