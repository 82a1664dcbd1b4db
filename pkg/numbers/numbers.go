package numbers

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// NewBig257 returns a new big.Int sized for math on uint256 values without
// truncation on intermediate negative results.
func NewBig257() *big.Int {
	return big.NewInt(257)
}

// ParseAmount decodes a token amount from a published payload. Payload amounts
// are uint256 base units and may be serialized either as a 0x-prefixed hex
// string or as a plain decimal string.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, ok := NewBig257().SetString(s[2:], 16)
		if !ok {
			return decimal.Zero, errors.Errorf("invalid hex amount '%s'", s)
		}
		return decimal.NewFromBigInt(b, 0), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid amount '%s'", s)
	}
	return d, nil
}

// DecimalFromUint64 lifts a uint64 into a decimal without passing through
// int64 or any floating point representation.
func DecimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// MulDivFloor computes floor(amount * num / den) in integer space. Token
// amounts are base units, so amount is expected to carry no fractional part;
// any fractional part is truncated before the multiplication, matching the
// uint256 arithmetic of the contracts.
func MulDivFloor(amount decimal.Decimal, num, den uint64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	a := amount.BigInt()
	v := new(big.Int).Mul(a, new(big.Int).SetUint64(num))
	v.Div(v, new(big.Int).SetUint64(den))
	return decimal.NewFromBigInt(v, 0)
}

// ClampToRange bounds v to [lo, hi].
func ClampToRange(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
