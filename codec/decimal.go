package codec

import (
	"math/big"

	"icdb/dberr"
)

// DecimalSize is the on-wire size of a Decimal value: a 16-byte unsigned
// mantissa, a 1-byte scale, a 1-byte sign, and 14 reserved zero bytes.
const DecimalSize = 16 + 1 + 1 + 14

// MaxDecimalDigits bounds the significant decimal digits a Decimal value
// can hold without loss: beyond
// this, extra digits are truncated rather than rounded.
const MaxDecimalDigits = 28

// Decimal is a 128-bit fixed-point number: an unsigned big-endian mantissa,
// an explicit decimal scale (digits after the point), and a sign.
//
// No arbitrary-precision decimal library appears anywhere in the retrieved
// pack, so the mantissa is carried as math/big.Int — see DESIGN.md.
type Decimal struct {
	Mantissa *big.Int // always non-negative; sign lives in Negative
	Scale    uint8
	Negative bool
}

// NewDecimal builds a Decimal from an unscaled integer mantissa and scale.
func NewDecimal(unscaled int64, scale uint8) Decimal {
	neg := unscaled < 0
	m := big.NewInt(unscaled)
	m.Abs(m)
	return Decimal{Mantissa: m, Scale: scale, Negative: neg}
}

// Cmp compares two decimals after aligning their scales.
func (d Decimal) Cmp(o Decimal) int {
	da, ob := alignScale(d, o)
	sa, sb := signOf(da), signOf(ob)
	if sa != sb {
		if sa < sb {
			return -1
		}
		return 1
	}
	c := da.Mantissa.Cmp(ob.Mantissa)
	if da.Negative {
		return -c
	}
	return c
}

func signOf(d Decimal) int {
	if d.Mantissa.Sign() == 0 {
		return 0
	}
	if d.Negative {
		return -1
	}
	return 1
}

func alignScale(a, b Decimal) (Decimal, Decimal) {
	if a.Scale == b.Scale {
		return a, b
	}
	ten := big.NewInt(10)
	if a.Scale < b.Scale {
		diff := int(b.Scale - a.Scale)
		factor := new(big.Int).Exp(ten, big.NewInt(int64(diff)), nil)
		m := new(big.Int).Mul(a.Mantissa, factor)
		return Decimal{Mantissa: m, Scale: b.Scale, Negative: a.Negative}, b
	}
	diff := int(a.Scale - b.Scale)
	factor := new(big.Int).Exp(ten, big.NewInt(int64(diff)), nil)
	m := new(big.Int).Mul(b.Mantissa, factor)
	return a, Decimal{Mantissa: m, Scale: a.Scale, Negative: b.Negative}
}

func (d Decimal) String() string {
	s := d.Mantissa.String()
	if s == "0" {
		return "0"
	}
	neg := ""
	if d.Negative {
		neg = "-"
	}
	if d.Scale == 0 {
		return neg + s
	}
	for len(s) <= int(d.Scale) {
		s = "0" + s
	}
	intPart := s[:len(s)-int(d.Scale)]
	fracPart := s[len(s)-int(d.Scale):]
	return neg + intPart + "." + fracPart
}

func encodeDecimal(d Decimal) ([]byte, error) {
	buf := make([]byte, DecimalSize)
	mag := d.Mantissa.Bytes()
	if len(mag) > 16 {
		return nil, dberr.New(dberr.ValidationFailed, "decimal mantissa %s exceeds the 128-bit encoding width", d.Mantissa.String())
	}
	copy(buf[16-len(mag):16], mag)
	buf[16] = d.Scale
	if d.Negative {
		buf[17] = 1
	}
	return buf, nil
}

func decodeDecimal(b []byte) (Decimal, error) {
	if len(b) != DecimalSize {
		return Decimal{}, errDecodeLen("Decimal", DecimalSize, len(b))
	}
	m := new(big.Int).SetBytes(b[0:16])
	scale := b[16]
	neg := b[17] != 0
	return Decimal{Mantissa: m, Scale: scale, Negative: neg}, nil
}
