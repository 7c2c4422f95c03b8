package lookups

// Symbols of legal values
const (
	JSqueued    = "queued"
	JSactive    = "active"
	JScompleted = "completed"
	JSfailed    = "failed"
)

// JobStatus returns a "generic" string for a given value
func JobStatus(value string) string {

	var str = ""

	switch {
	case value == JSqueued:
		str = "waiting for the vote worker"
	case value == JSactive:
		str = "being processed"
	case value == JScompleted:
		str = "processed successfully"
	case value == JSfailed:
		str = "failed (see reason)"
	}

	return str
}
