package lookups

// Symbols of legal values
const (
	TKarticle = "ARTICLE"
	TKclaim   = "CLAIM"
	TKreview  = "REVIEW"
	TKuser    = "USER"
)

// TargetKind returns a "generic" string for a given value
func TargetKind(value string) string {

	var str = ""

	switch {
	case value == TKarticle:
		str = "article"
	case value == TKclaim:
		str = "claim"
	case value == TKreview:
		str = "review"
	case value == TKuser:
		str = "user"
	}

	return str
}
