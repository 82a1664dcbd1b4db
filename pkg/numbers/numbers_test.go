package numbers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_ParseAmount(t *testing.T) {
	t.Run("decimal string", func(t *testing.T) {
		d, err := ParseAmount("123456789000000000000")
		assert.Nil(t, err)
		assert.Equal(t, "123456789000000000000", d.String())
	})

	t.Run("hex string", func(t *testing.T) {
		d, err := ParseAmount("0xde0b6b3a7640000")
		assert.Nil(t, err)
		assert.Equal(t, "1000000000000000000", d.String())
	})

	t.Run("whitespace is tolerated", func(t *testing.T) {
		d, err := ParseAmount("  42 ")
		assert.Nil(t, err)
		assert.Equal(t, "42", d.String())
	})

	t.Run("empty string errors", func(t *testing.T) {
		_, err := ParseAmount("")
		assert.NotNil(t, err)
	})

	t.Run("garbage errors", func(t *testing.T) {
		_, err := ParseAmount("0xzz")
		assert.NotNil(t, err)

		_, err = ParseAmount("not-a-number")
		assert.NotNil(t, err)
	})
}

func Test_MulDivFloor(t *testing.T) {
	t.Run("floors the quotient", func(t *testing.T) {
		v := MulDivFloor(decimal.NewFromInt(1000), 1, 3)
		assert.Equal(t, "333", v.String())
	})

	t.Run("multiplies before dividing", func(t *testing.T) {
		// 7*3/21 == 1 exactly; dividing first would truncate to zero.
		v := MulDivFloor(decimal.NewFromInt(7), 3, 21)
		assert.Equal(t, "1", v.String())
	})

	t.Run("zero denominator yields zero", func(t *testing.T) {
		v := MulDivFloor(decimal.NewFromInt(1000), 1, 0)
		assert.True(t, v.IsZero())
	})
}

func Test_ClampToRange(t *testing.T) {
	lo := decimal.NewFromInt(0)
	hi := decimal.NewFromInt(100)

	assert.Equal(t, "0", ClampToRange(decimal.NewFromInt(-5), lo, hi).String())
	assert.Equal(t, "100", ClampToRange(decimal.NewFromInt(250), lo, hi).String())
	assert.Equal(t, "42", ClampToRange(decimal.NewFromInt(42), lo, hi).String())
}
