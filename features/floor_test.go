package features

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorCodec_RomanCodes(t *testing.T) {
	codec := NewFloorCodec(GroundExclude)

	for total := 1; total <= MaxRomanFloor; total++ {
		for n := 1; n <= total; n++ {
			numeral, _ := RomanNumeral(n)
			code := numeral + "/" + strconv.Itoa(total)

			got, ok := codec.Parse(code)
			require.True(t, ok, code)
			assert.Equal(t, n, got.Number, code)
			assert.Equal(t, n == total, got.IsTop, code)
			assert.False(t, got.IsGround, code)
		}
	}
}

func TestFloorCodec_Normalises(t *testing.T) {
	codec := NewFloorCodec(GroundExclude)

	got, ok := codec.Parse("  iv / 8 ")
	require.True(t, ok)
	assert.Equal(t, FloorFeatures{Number: 4}, got)

	got, ok = codec.Parse("viii/8")
	require.True(t, ok)
	assert.Equal(t, FloorFeatures{Number: 8, IsTop: true}, got)
}

func TestFloorCodec_GroundPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy GroundFloorPolicy
		code   string
		want   FloorFeatures
	}{
		{"exclude PR", GroundExclude, "PR", FloorFeatures{}},
		{"exclude VPR with total", GroundExclude, "VPR/3", FloorFeatures{}},
		{"discount PR", GroundDiscount, "pr/5", FloorFeatures{IsGround: true}},
		{"discount SUT", GroundDiscount, "SUT", FloorFeatures{IsGround: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewFloorCodec(tt.policy).Parse(tt.code)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloorCodec_OutsideGrammar(t *testing.T) {
	codec := NewFloorCodec(GroundDiscount)
	inputs := []string{"", "4", "IV", "IV-8", "4/8", "prizemlje", "/8", "IV/", "Ostalo", "IV/8/2"}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			got, ok := codec.Parse(in)
			assert.False(t, ok, in)
			assert.Equal(t, FloorFeatures{}, got, in)
		})
	}
}

func TestFloorCodec_UnknownNumeral(t *testing.T) {
	got, ok := NewFloorCodec(GroundExclude).Parse("XXX/30")
	assert.True(t, ok)
	assert.Equal(t, 0, got.Number)
	assert.False(t, got.IsTop)
}

func TestParseGroundFloorPolicy(t *testing.T) {
	p, err := ParseGroundFloorPolicy("Discount")
	require.NoError(t, err)
	assert.Equal(t, GroundDiscount, p)

	p, err = ParseGroundFloorPolicy("")
	require.NoError(t, err)
	assert.Equal(t, GroundExclude, p)

	_, err = ParseGroundFloorPolicy("negative")
	assert.Error(t, err)
}

func TestFloorOptions(t *testing.T) {
	assert.Equal(t, []string{"PR/3", "VPR/3", "I/3", "II/3", "III/3"}, FloorOptions(3))
	assert.Equal(t, []string{"PR/0", "VPR/0"}, FloorOptions(0))
	assert.Len(t, FloorOptions(40), 2+MaxRomanFloor)
}
