package suggestions

import "github.com/go-faster/errors"

var (
	// ErrNotFound means a suggestion id or display reference did not resolve.
	ErrNotFound = errors.New("suggestion not found")
	// ErrForbidden means the actor lacks the capability or ownership required.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalid means user input failed validation.
	ErrInvalid = errors.New("invalid input")
	// ErrConfiguration means the module could not resolve required startup state.
	ErrConfiguration = errors.New("configuration error")
	// ErrInternal marks unexpected store or platform failures.
	ErrInternal = errors.New("internal error")
	// ErrConflict means a vote could not be committed within the retry budget.
	ErrConflict = errors.New("vote conflict")
)

type internalError struct {
	op  string
	err error
}

func (e *internalError) Error() string { return e.op + ": " + e.err.Error() }

func (e *internalError) Unwrap() error { return e.err }

func (e *internalError) Is(target error) bool { return target == ErrInternal }

// internal wraps err so that errors.Is(err, ErrInternal) holds. Errors that
// already carry a known kind pass through unchanged.
func internal(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrInvalid, ErrConfiguration, ErrInternal} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &internalError{op: op, err: err}
}

// ValidationError carries a user-facing explanation of rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }
