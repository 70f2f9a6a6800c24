package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDimensionMismatch matches every DimensionError under errors.Is.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DimensionError reports a call that supplied the wrong number of inputs.
type DimensionError struct {
	Unit     string
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s given %d inputs, expected %d", e.Unit, e.Actual, e.Expected)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
