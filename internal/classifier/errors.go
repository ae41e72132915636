package classifier

import (
	"errors"
	"fmt"
)

// ErrFeatureMismatch is returned when a feature vector, the scaler and the
// model disagree on the number or order of features
var ErrFeatureMismatch = errors.New("feature mismatch")

// IntegrityError reports a missing, corrupt or schema-mismatched model
// artifact. It is fatal at startup.
type IntegrityError struct {
	Artifact string
	Err      error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Artifact, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
