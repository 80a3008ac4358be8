package features

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GroundFloorPolicy decides how ground-level floor codes are encoded.
type GroundFloorPolicy string

const (
	// GroundExclude encodes ground floors as floor 0 that is never top.
	GroundExclude GroundFloorPolicy = "exclude"
	// GroundDiscount flags ground floors in a Negative_floor column and
	// discounts the predicted price-per-area by GroundFloorDiscount.
	GroundDiscount GroundFloorPolicy = "discount"
)

// GroundFloorDiscount multiplies predictions for ground floors under
// GroundDiscount.
const GroundFloorDiscount = 0.95

// ParseGroundFloorPolicy validates a configured policy name.
func ParseGroundFloorPolicy(s string) (GroundFloorPolicy, error) {
	switch p := GroundFloorPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case GroundExclude, GroundDiscount:
		return p, nil
	case "":
		return GroundExclude, nil
	default:
		return "", fmt.Errorf("features: unknown ground floor policy %q", s)
	}
}

var (
	// groundFloorRegexp matches ground and semi-ground markers with an optional total.
	groundFloorRegexp = regexp.MustCompile(`^(PR|VPR|NPR|SUT)(?:/(\d+))?$`)
	// romanFloorRegexp matches "<numeral>/<total floors>".
	romanFloorRegexp = regexp.MustCompile(`^([IVXLC]+)/(\d+)$`)
)

// FloorFeatures is the numeric reading of a floor code.
type FloorFeatures struct {
	Number   int
	IsTop    bool
	IsGround bool
}

// FloorCodec turns floor codes such as "IV/8", "PR/5" or "VPR" into
// FloorFeatures.
type FloorCodec struct {
	policy GroundFloorPolicy
}

// NewFloorCodec returns a codec applying the given ground floor policy.
func NewFloorCodec(policy GroundFloorPolicy) FloorCodec {
	if policy == "" {
		policy = GroundExclude
	}
	return FloorCodec{policy: policy}
}

// Policy reports the active ground floor policy.
func (c FloorCodec) Policy() GroundFloorPolicy { return c.policy }

// Parse decodes code. The boolean reports whether code matched the floor
// grammar; unmatched codes decode to the zero FloorFeatures and never fail.
func (c FloorCodec) Parse(code string) (FloorFeatures, bool) {
	v := strings.ToUpper(strings.Join(strings.Fields(code), ""))
	if v == "" {
		return FloorFeatures{}, false
	}

	if groundFloorRegexp.MatchString(v) {
		return FloorFeatures{IsGround: c.policy == GroundDiscount}, true
	}

	m := romanFloorRegexp.FindStringSubmatch(v)
	if m == nil {
		return FloorFeatures{}, false
	}

	total, err := strconv.Atoi(m[2])
	if err != nil {
		return FloorFeatures{}, false
	}

	// An unknown numeral still matches the grammar; it reads as floor 0.
	num, _ := RomanValue(m[1])
	return FloorFeatures{
		Number: num,
		IsTop:  num > 0 && num == total,
	}, true
}

// FloorOptions lists the floor codes selectable in a building with total
// floors: the ground markers followed by every numeral up to total.
func FloorOptions(total int) []string {
	if total < 0 {
		total = 0
	}
	if total > MaxRomanFloor {
		total = MaxRomanFloor
	}
	suffix := "/" + strconv.Itoa(total)
	opts := []string{"PR" + suffix, "VPR" + suffix}
	for n := 1; n <= total; n++ {
		r, _ := RomanNumeral(n)
		opts = append(opts, r+suffix)
	}
	return opts
}
