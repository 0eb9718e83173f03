package value

import (
	"math/big"
	"strings"
)

// Decimal is an arbitrary-precision fixed-point number: an unscaled integer
// plus a base-10 scale (the number of digits after the point), so that
// 0.1 + 0.2 == 0.3 exactly instead of accumulating binary-float error.
//
// No third-party decimal library (e.g. shopspring/decimal) appears anywhere
// in the retrieved example corpus's dependency graph, so this is built
// directly on the standard library's math/big — see DESIGN.md.
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

// maxPrecision bounds the scale division results are rounded to, loosely
// matching IEEE-754-2008 decimal128's 34 significant digits.
const maxPrecision = 34

func (*Decimal) Type() string { return "decimal" }

func NewDecimalFromInt(i int64) *Decimal {
	return &Decimal{Unscaled: big.NewInt(i), Scale: 0}
}

// ParseDecimal parses a literal like "12.340" or "-0.5" into a Decimal,
// preserving the literal's scale (trailing zeros included) verbatim.
func ParseDecimal(s string) (*Decimal, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, false
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	return &Decimal{Unscaled: unscaled, Scale: int32(len(fracPart))}, true
}

func scalePow(n int32) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// align returns unscaled integer representations of a and b at a common
// scale (the larger of the two), without mutating either receiver.
func align(a, b *Decimal) (*big.Int, *big.Int, int32) {
	if a.Scale == b.Scale {
		return new(big.Int).Set(a.Unscaled), new(big.Int).Set(b.Unscaled), a.Scale
	}
	if a.Scale > b.Scale {
		diff := scalePow(a.Scale - b.Scale)
		return new(big.Int).Set(a.Unscaled), new(big.Int).Mul(b.Unscaled, diff), a.Scale
	}
	diff := scalePow(b.Scale - a.Scale)
	return new(big.Int).Mul(a.Unscaled, diff), new(big.Int).Set(b.Unscaled), b.Scale
}

func (d *Decimal) Add(o *Decimal) *Decimal {
	au, bu, scale := align(d, o)
	return &Decimal{Unscaled: au.Add(au, bu), Scale: scale}
}

func (d *Decimal) Sub(o *Decimal) *Decimal {
	au, bu, scale := align(d, o)
	return &Decimal{Unscaled: au.Sub(au, bu), Scale: scale}
}

func (d *Decimal) Mul(o *Decimal) *Decimal {
	u := new(big.Int).Mul(d.Unscaled, o.Unscaled)
	return (&Decimal{Unscaled: u, Scale: d.Scale + o.Scale}).normalized()
}

// Div divides d by o, scaling the result to maxPrecision fractional digits
// (trimmed on display). Returns ok=false on division by zero; the caller
// raises ArithmeticError.
func (d *Decimal) Div(o *Decimal) (*Decimal, bool) {
	if o.Unscaled.Sign() == 0 {
		return nil, false
	}
	targetScale := int32(maxPrecision)
	numerator := new(big.Int).Mul(d.Unscaled, scalePow(targetScale+o.Scale-d.Scale))
	q := new(big.Int).Quo(numerator, o.Unscaled)
	return (&Decimal{Unscaled: q, Scale: targetScale}).normalized(), true
}

func (d *Decimal) Neg() *Decimal {
	return &Decimal{Unscaled: new(big.Int).Neg(d.Unscaled), Scale: d.Scale}
}

func (d *Decimal) Cmp(o *Decimal) int {
	au, bu, _ := align(d, o)
	return au.Cmp(bu)
}

// normalized caps scale to maxPrecision by truncating excess digits and
// trims trailing zero digits so equal values hash/compare/display the same.
func (d *Decimal) normalized() *Decimal {
	u, scale := d.Unscaled, d.Scale
	if scale > maxPrecision {
		u = new(big.Int).Quo(u, scalePow(scale-maxPrecision))
		scale = maxPrecision
	}
	for scale > 0 {
		q, r := new(big.Int).QuoRem(u, big.NewInt(10), new(big.Int))
		if r.Sign() != 0 {
			break
		}
		u, scale = q, scale-1
	}
	return &Decimal{Unscaled: u, Scale: scale}
}

func (d *Decimal) String() string {
	neg := d.Unscaled.Sign() < 0
	digits := new(big.Int).Abs(d.Unscaled).String()
	if d.Scale <= 0 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	for int32(len(digits)) <= d.Scale {
		digits = "0" + digits
	}
	intPart := digits[:int32(len(digits))-d.Scale]
	fracPart := digits[int32(len(digits))-d.Scale:]
	out := intPart + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
