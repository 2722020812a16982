package evalexpr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goliatone/go-docfield/pkg/coerce"
	"github.com/goliatone/go-docfield/pkg/model"
)

type node interface {
	eval(scope Scope) (any, error)
}

type literalNode struct {
	value any
}

func (n literalNode) eval(Scope) (any, error) { return n.value, nil }

type identifierNode struct {
	name string
}

func (n identifierNode) eval(scope Scope) (any, error) {
	value, ok := scope[n.name]
	if !ok {
		return nil, fmt.Errorf("evalexpr: %q is not defined", n.name)
	}
	return value, nil
}

type listNode struct {
	items []node
}

func (n listNode) eval(scope Scope) (any, error) {
	out := make([]any, 0, len(n.items))
	for _, item := range n.items {
		value, err := item.eval(scope)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// orNode and andNode short-circuit and yield the deciding operand's value,
// the way script `||` / `&&` do, so `doc.rate || 0` works as a fallback.
type orNode struct {
	left, right node
}

func (n orNode) eval(scope Scope) (any, error) {
	left, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	if Truthy(left) {
		return left, nil
	}
	return n.right.eval(scope)
}

type andNode struct {
	left, right node
}

func (n andNode) eval(scope Scope) (any, error) {
	left, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	if !Truthy(left) {
		return left, nil
	}
	return n.right.eval(scope)
}

type notNode struct {
	inner node
}

func (n notNode) eval(scope Scope) (any, error) {
	value, err := n.inner.eval(scope)
	if err != nil {
		return nil, err
	}
	return !Truthy(value), nil
}

type negateNode struct {
	inner node
}

func (n negateNode) eval(scope Scope) (any, error) {
	value, err := n.inner.eval(scope)
	if err != nil {
		return nil, err
	}
	f, ok := coerce.NumberValue(value)
	if !ok {
		return math.NaN(), nil
	}
	return -f, nil
}

type compareNode struct {
	op          tokenKind
	left, right node
}

func (n compareNode) eval(scope Scope) (any, error) {
	left, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokenEq:
		return coerce.LooseEq(left, right), nil
	case tokenNeq:
		return !coerce.LooseEq(left, right), nil
	case tokenIn:
		return coerce.InList(right, left), nil
	}
	return compareOrdered(n.op, left, right)
}

func compareOrdered(op tokenKind, left, right any) (any, error) {
	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	if lIsStr && rIsStr {
		return orderedResult(op, ls < rs, ls == rs), nil
	}
	lf, lOK := coerce.NumberValue(left)
	rf, rOK := coerce.NumberValue(right)
	if !lOK || !rOK || math.IsNaN(lf) || math.IsNaN(rf) {
		return false, nil
	}
	return orderedResult(op, lf < rf, lf == rf), nil
}

func orderedResult(op tokenKind, less, equal bool) bool {
	switch op {
	case tokenLt:
		return less
	case tokenLte:
		return less || equal
	case tokenGt:
		return !less && !equal
	case tokenGte:
		return !less
	}
	return false
}

type arithmeticNode struct {
	op          tokenKind
	left, right node
}

func (n arithmeticNode) eval(scope Scope) (any, error) {
	left, err := n.left.eval(scope)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(scope)
	if err != nil {
		return nil, err
	}

	// `+` concatenates when either side is a string, mirroring scripts.
	if n.op == tokenPlus {
		if _, ok := left.(string); ok {
			return left.(string) + coerce.Cstr(right), nil
		}
		if _, ok := right.(string); ok {
			return coerce.Cstr(left) + right.(string), nil
		}
	}

	lf, lOK := coerce.NumberValue(left)
	rf, rOK := coerce.NumberValue(right)
	if !lOK || !rOK {
		return math.NaN(), nil
	}
	switch n.op {
	case tokenPlus:
		return lf + rf, nil
	case tokenMinus:
		return lf - rf, nil
	case tokenStar:
		return lf * rf, nil
	case tokenSlash:
		return lf / rf, nil
	case tokenPercent:
		return math.Mod(lf, rf), nil
	}
	return nil, fmt.Errorf("evalexpr: unsupported arithmetic operator")
}

type memberNode struct {
	base node
	name string
}

func (n memberNode) eval(scope Scope) (any, error) {
	base, err := n.base.eval(scope)
	if err != nil {
		return nil, err
	}
	return member(base, n.name)
}

func member(base any, name string) (any, error) {
	switch b := base.(type) {
	case nil:
		return nil, fmt.Errorf("evalexpr: cannot read property %q of null", name)
	case model.Document:
		return b[name], nil
	case Scope:
		return b[name], nil
	case map[string]any:
		return b[name], nil
	case map[string]string:
		return b[name], nil
	default:
		return nil, fmt.Errorf("evalexpr: cannot read property %q of %T", name, base)
	}
}

type indexNode struct {
	base  node
	index node
}

func (n indexNode) eval(scope Scope) (any, error) {
	base, err := n.base.eval(scope)
	if err != nil {
		return nil, err
	}
	index, err := n.index.eval(scope)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case []any:
		i := coerce.Cint(index)
		if i < 0 || i >= len(b) {
			return nil, nil
		}
		return b[i], nil
	case []string:
		i := coerce.Cint(index)
		if i < 0 || i >= len(b) {
			return nil, nil
		}
		return b[i], nil
	default:
		return member(base, coerce.Cstr(index))
	}
}

type callNode struct {
	callee node
	args   []node
}

func (n callNode) eval(scope Scope) (any, error) {
	callee, err := n.callee.eval(scope)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(n.args))
	for _, arg := range n.args {
		value, err := arg.eval(scope)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	switch fn := callee.(type) {
	case Func:
		return fn(args...)
	case func(args ...any) (any, error):
		return fn(args...)
	default:
		return nil, fmt.Errorf("evalexpr: %T is not callable", callee)
	}
}

// Truthy applies script truthiness to an expression value. It differs from
// coerce.Truthy only in documenting the contract for lists and maps: any
// non-nil collection is truthy, empty or not, because scripts treat them as
// objects.
func Truthy(value any) bool {
	return coerce.Truthy(value)
}

func parseNumber(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("evalexpr: invalid number literal %q", raw)
	}
	return f, nil
}
