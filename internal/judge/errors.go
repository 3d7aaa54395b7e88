package judge

import "fmt"

// UnavailableError means the judge could not be reached or answered with a
// non-2xx status.
type UnavailableError struct {
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("judge unavailable: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("judge unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// InvalidResponseError means the judge answered but the body did not match
// the verdict schema.
type InvalidResponseError struct {
	Body []byte
	Err  error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("judge returned an invalid verdict: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }
