package council

import "fmt"

// ErrKind is the engine's error taxonomy (§7) — a closed set of kinds,
// not Go types, so a caller can switch on Kind without type assertions.
type ErrKind string

const (
	ErrKindInvalidRequest     ErrKind = "invalid_request"
	ErrKindProviderTransient  ErrKind = "provider_transient"
	ErrKindProviderPermanent  ErrKind = "provider_permanent"
	ErrKindParseFailure       ErrKind = "parse_failure"
	ErrKindCancelled          ErrKind = "cancelled"
	ErrKindInternal           ErrKind = "internal"
)

// CouncilError wraps an error with its taxonomy kind. Only InvalidRequest
// and Cancelled are ever returned wholesale from Deliberate; the other
// kinds are swallowed into per-stage structured fields per §7's
// propagation policy.
type CouncilError struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *CouncilError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CouncilError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest builds an InvalidRequest CouncilError.
func NewInvalidRequest(message string) *CouncilError {
	return &CouncilError{Kind: ErrKindInvalidRequest, Message: message}
}

// NewCancelled builds a Cancelled CouncilError.
func NewCancelled(err error) *CouncilError {
	return &CouncilError{Kind: ErrKindCancelled, Message: "deliberation cancelled before a usable partial output existed", Err: err}
}

// IsKind reports whether err is a *CouncilError of the given kind.
func IsKind(err error, kind ErrKind) bool {
	ce, ok := err.(*CouncilError)
	return ok && ce.Kind == kind
}
