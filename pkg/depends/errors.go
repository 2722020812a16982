package depends

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression marks an `eval:` expression that failed to parse or
// threw during execution. It indicates a metadata authoring defect, not a
// transient condition; callers catch it at the render boundary.
var ErrInvalidExpression = errors.New("depends: invalid depends_on expression")

// ErrUnsupportedExpression marks an `fn:` rule. Named rules resolve through
// a script manager this engine does not implement; the gap is surfaced, not
// approximated.
var ErrUnsupportedExpression = errors.New("depends: fn rules are not supported")

// InvalidExpressionError carries the offending expression text and the
// underlying evaluator failure. errors.Is matches ErrInvalidExpression.
type InvalidExpressionError struct {
	Expression string
	Err        error
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("depends: invalid depends_on expression %q: %v", e.Expression, e.Err)
}

func (e *InvalidExpressionError) Unwrap() []error {
	return []error{ErrInvalidExpression, e.Err}
}

// UnsupportedExpressionError carries the unresolvable rule name. errors.Is
// matches ErrUnsupportedExpression.
type UnsupportedExpressionError struct {
	Rule string
}

func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("depends: fn rule %q is not supported", e.Rule)
}

func (e *UnsupportedExpressionError) Unwrap() error {
	return ErrUnsupportedExpression
}
