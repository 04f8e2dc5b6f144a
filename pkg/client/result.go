package client

// Outcome classifies the result of a single remote call.
type Outcome int

const (
	// OutcomeSuccess means the remote returned the requested resource.
	OutcomeSuccess Outcome = iota

	// OutcomeNotFound means the resource does not exist remotely (HTTP 404).
	// It is a first-class result, not an error.
	OutcomeNotFound

	// OutcomeConfigurationError means the client is missing a required
	// setting. No request was attempted.
	OutcomeConfigurationError

	// OutcomeRemoteError means a non-success status other than 404, a
	// blocked request or a transport failure.
	OutcomeRemoteError

	// OutcomeParseError means the response arrived but could not be decoded.
	OutcomeParseError
)

// String returns the metric and log label of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeConfigurationError:
		return "configuration_error"
	case OutcomeRemoteError:
		return "remote_error"
	case OutcomeParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Result is the explicit result of a client operation. Value is only
// meaningful when Outcome is OutcomeSuccess. Err is nil for success and
// not-found.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func failed[T any](outcome Outcome, err error) Result[T] {
	return Result[T]{Outcome: outcome, Err: err}
}
