package apperror

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoData          = Error("no records found")
	ErrMultipleRecords = Error("mulitple records found")
	ErrNotFound        = Error("target does not exist")
	ErrInvalidRating   = Error("invalid vote rating")
	ErrInvalidKind     = Error("invalid target kind")
	ErrRecordChanged   = Error("write conflict")
	ErrDenied          = Error("not allowed") // eg. upd/del not allowed
)
