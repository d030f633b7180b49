package fieldtype

import (
	"errors"
	"fmt"
)

// ErrCoercion matches every *CoercionError through errors.Is.
var ErrCoercion = errors.New("fieldtype: coercion failed")

// CoercionError reports raw input that cannot be represented in the value
// shape of its field type.
type CoercionError struct {
	Type   Type
	Raw    any
	Reason string
}

func (e *CoercionError) Error() string {
	if e == nil {
		return ErrCoercion.Error()
	}
	return fmt.Sprintf("fieldtype: cannot use %T as %s: %s", e.Raw, e.Type, e.Reason)
}

// Is lets callers test with errors.Is(err, ErrCoercion).
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}
