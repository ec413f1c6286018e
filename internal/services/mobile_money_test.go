package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMobileMoneyNumber_AcceptsNationalShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prefixes := []string{"01", "05", "07"}
	countryCodes := []string{"", "+225", "225", "00225"}

	for i := 0; i < 200; i++ {
		subscriber := fmt.Sprintf("%08d", rng.Intn(100000000))
		operator := prefixes[rng.Intn(len(prefixes))]
		cc := countryCodes[rng.Intn(len(countryCodes))]

		got, err := NormalizeMobileMoneyNumber(cc + operator + subscriber)
		require.NoError(t, err, cc+operator+subscriber)
		assert.Equal(t, "+225"+operator+subscriber, got)
	}

	got, err := NormalizeMobileMoneyNumber(" +225 07-12-34-56-78 ")
	require.NoError(t, err)
	assert.Equal(t, "+2250712345678", got)
}

func TestNormalizeMobileMoneyNumber_RejectsOtherShapes(t *testing.T) {
	for _, number := range []string{
		"",
		"12345",
		"0212345678",     // unknown operator prefix
		"071234567",      // subscriber too short
		"07123456789",    // subscriber too long
		"+2260712345678", // other country
		"07abcdefgh",
		"+225",
	} {
		_, err := NormalizeMobileMoneyNumber(number)
		assert.Error(t, err, number)
	}
}
