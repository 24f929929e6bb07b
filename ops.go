package hive

import (
	"math"
	"math/big"

	"github.com/xiam/hive/diag"
)

type arithOp struct {
	ints   func(a, b *big.Int) *big.Int
	floats func(a, b float64) float64
}

var (
	opAdd = arithOp{
		ints:   func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) },
		floats: func(a, b float64) float64 { return a + b },
	}
	opSub = arithOp{
		ints:   func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) },
		floats: func(a, b float64) float64 { return a - b },
	}
	opMul = arithOp{
		ints:   func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) },
		floats: func(a, b float64) float64 { return a * b },
	}
)

func (op arithOp) apply(a, b *Value) *Value {
	if a.Type == ValueTypeInt && b.Type == ValueTypeInt {
		return NewIntValue(op.ints(a.Int(), b.Int()))
	}
	return NewFloatValue(op.floats(toFloat(a), toFloat(b)))
}

// fold applies op from left to right, starting from identity when there is
// a single operand.
func (c *Call) fold(op arithOp, identity int64, args []*Value) (*Value, error) {
	for _, arg := range args {
		if err := c.expectNumber(arg); err != nil {
			return nil, err
		}
	}
	switch len(args) {
	case 0:
		return NewInt64Value(identity), nil
	case 1:
		return op.apply(NewInt64Value(identity), args[0]), nil
	}
	acc := args[0]
	for _, arg := range args[1:] {
		acc = op.apply(acc, arg)
	}
	return acc, nil
}

func isZero(v *Value) bool {
	if v.Type == ValueTypeInt {
		return v.Int().Sign() == 0
	}
	return v.Float64() == 0
}

func divide(c *Call, a, b *Value) (*Value, error) {
	if isZero(b) {
		return nil, c.Errorf(diag.Runtime, "division by zero")
	}
	if a.Type == ValueTypeInt && b.Type == ValueTypeInt {
		q, r := new(big.Int).QuoRem(a.Int(), b.Int(), new(big.Int))
		if r.Sign() == 0 {
			return NewIntValue(q), nil
		}
		f, _ := new(big.Rat).SetFrac(a.Int(), b.Int()).Float64()
		return NewFloatValue(f), nil
	}
	return NewFloatValue(toFloat(a) / toFloat(b)), nil
}

// modulo follows the sign of the divisor.
func modulo(c *Call, a, b *Value) (*Value, error) {
	if isZero(b) {
		return nil, c.Errorf(diag.Runtime, "modulo by zero")
	}
	if a.Type == ValueTypeInt && b.Type == ValueTypeInt {
		r := new(big.Int).Rem(a.Int(), b.Int())
		if r.Sign() != 0 && r.Sign() != b.Int().Sign() {
			r.Add(r, b.Int())
		}
		return NewIntValue(r), nil
	}
	fa, fb := toFloat(a), toFloat(b)
	r := math.Mod(fa, fb)
	if r != 0 && (r < 0) != (fb < 0) {
		r += fb
	}
	if r == 0 {
		r = math.Copysign(0, fb)
	}
	return NewFloatValue(r), nil
}

// ordered compares two numbers with the given operator. Mixed operands are
// compared as floats, NaN compares false.
func ordered(op string, a, b *Value) bool {
	if a.Type == ValueTypeInt && b.Type == ValueTypeInt {
		cmp := a.Int().Cmp(b.Int())
		switch op {
		case "<":
			return cmp < 0
		case ">":
			return cmp > 0
		case "<=":
			return cmp <= 0
		}
		return cmp >= 0
	}
	fa, fb := toFloat(a), toFloat(b)
	switch op {
	case "<":
		return fa < fb
	case ">":
		return fa > fb
	case "<=":
		return fa <= fb
	}
	return fa >= fb
}

func comparison(op string) BuiltinFunc {
	return func(c *Call, args []*Value) (*Value, error) {
		for _, arg := range args {
			if err := c.expectNumber(arg); err != nil {
				return nil, err
			}
		}
		for i := 1; i < len(args); i++ {
			if !ordered(op, args[i-1], args[i]) {
				return False, nil
			}
		}
		return True, nil
	}
}

func allEqual(args []*Value) bool {
	for i := 1; i < len(args); i++ {
		if !Equal(args[i-1], args[i]) {
			return false
		}
	}
	return true
}

func registerOps(r *Registry) {
	r.Register("+", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return c.fold(opAdd, 0, args)
	})
	r.Register("-", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return c.fold(opSub, 0, args)
	})
	r.Register("*", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return c.fold(opMul, 1, args)
	})
	r.Register("/", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		for _, arg := range args {
			if err := c.expectNumber(arg); err != nil {
				return nil, err
			}
		}
		if len(args) == 1 {
			return divide(c, NewInt64Value(1), args[0])
		}
		acc := args[0]
		for _, arg := range args[1:] {
			var err error
			if acc, err = divide(c, acc, arg); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
	r.Register("%", 2, 2, func(c *Call, args []*Value) (*Value, error) {
		for _, arg := range args {
			if err := c.expectNumber(arg); err != nil {
				return nil, err
			}
		}
		return modulo(c, args[0], args[1])
	})

	for _, op := range []string{"<", ">", "<=", ">="} {
		r.Register(op, 1, Variadic, comparison(op))
	}
	r.Register("=", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return NewBoolValue(allEqual(args)), nil
	})
	r.Register("!=", 1, Variadic, func(c *Call, args []*Value) (*Value, error) {
		return NewBoolValue(!allEqual(args)), nil
	})

	r.Register("not", 1, 1, func(c *Call, args []*Value) (*Value, error) {
		return NewBoolValue(!Truthy(args[0])), nil
	})
	r.Register("and", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		result := True
		for _, arg := range args {
			result = arg
			if !Truthy(arg) {
				break
			}
		}
		return result, nil
	})
	r.Register("or", 0, Variadic, func(c *Call, args []*Value) (*Value, error) {
		result := Null
		for _, arg := range args {
			result = arg
			if Truthy(arg) {
				break
			}
		}
		return result, nil
	})
}
