package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"apartment-estimator/features"
	"apartment-estimator/models"
	"apartment-estimator/utils"
)

var (
	// roomsRegexp captures the leading room count in "2.5", "1,5" or "4+"
	roomsRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	// parkingRegexp matches textual mentions of a parking amenity
	parkingRegexp = regexp.MustCompile(`(?i)gara[zž]a|parking|\bda\b|\byes\b|\btrue\b`)
)

// Cleaner turns raw corpus rows into ListingRecords. Price and area are
// left untouched; the feature encoder owns their parsing.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises raw rows and drops repeated URLs. Rows without a URL
// are kept since the ETL output does not always carry one.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.ListingRecord {
	seen := make(map[string]struct{})
	result := make([]*models.ListingRecord, 0, len(raw))

	for _, r := range raw {
		if r == nil {
			continue
		}
		url := strings.TrimSpace(r.URL)
		if url != "" {
			if _, dup := seen[url]; dup {
				c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
				continue
			}
			seen[url] = struct{}{}
		}

		result = append(result, &models.ListingRecord{
			URL:            url,
			Title:          normaliseText(r.Title),
			Price:          normaliseText(r.Price),
			AreaM2:         normaliseText(r.AreaM2),
			Municipality:   normaliseMunicipality(r.Municipality),
			Rooms:          c.parseRooms(r.Rooms),
			Floor:          normaliseText(r.Floor),
			Type:           normaliseText(r.Type),
			Condition:      normaliseText(r.Condition),
			Heating:        normaliseText(r.Heating),
			ParkingGarage:  parseParkingFlag(r.ParkingGarage),
			ParkingOutdoor: parseParkingFlag(r.ParkingOutdoor),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parseRooms reads the room count, ignoring a trailing "+".
// Examples:
//
//	"2.5" → 2.5
//	"1,5" → 1.5
//	"5+"  → 5
func (c *Cleaner) parseRooms(raw string) float64 {
	match := roomsRegexp.FindString(raw)
	if match == "" {
		if strings.TrimSpace(raw) != "" {
			c.logger.Warn("[cleaner] Unreadable room count %q, using 0", raw)
		}
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseParkingFlag keeps the source convention: 0 means the amenity is
// present, 1 that it is absent. Free text naming the amenity counts as
// present.
func parseParkingFlag(raw string) int {
	v := strings.TrimSpace(raw)
	switch v {
	case "0":
		return 0
	case "1", "":
		return 1
	}
	if parkingRegexp.MatchString(v) {
		return 0
	}
	return 1
}

func normaliseMunicipality(s string) string {
	s = normaliseText(s)
	if s == "" || strings.EqualFold(s, "ostalo") {
		return features.FallbackCategory
	}
	return s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
