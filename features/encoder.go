package features

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"apartment-estimator/models"
)

// ConditionEncoding selects how the Condition field becomes features.
type ConditionEncoding string

const (
	// ConditionOneHot expands Condition into Condition_* indicator columns.
	ConditionOneHot ConditionEncoding = "onehot"
	// ConditionOrdinal replaces Condition with one Condition_score column.
	ConditionOrdinal ConditionEncoding = "ordinal"
)

// ParseConditionEncoding validates a configured encoding name.
func ParseConditionEncoding(s string) (ConditionEncoding, error) {
	switch e := ConditionEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case ConditionOneHot, ConditionOrdinal:
		return e, nil
	case "":
		return ConditionOneHot, nil
	default:
		return "", fmt.Errorf("features: unknown condition encoding %q", s)
	}
}

// Jitter half-widths applied to discrete features of training rows.
const (
	roomsNoise   = 0.1
	floorNoise   = 0.05
	parkingNoise = 0.05
)

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	GroundPolicy      GroundFloorPolicy
	ConditionEncoding ConditionEncoding
	// Noise jitters Rooms, Floor_num and Parking_effect of training rows.
	// Inference is never jittered.
	Noise bool
	Seed  int64
	// Tables defaults to DefaultScoreTables when nil.
	Tables *CategoryScoreTables
}

// FitStats counts what Fit did with the corpus.
type FitStats struct {
	Rows    int
	Kept    int
	Dropped int
}

// Dataset is an encoded training corpus. Row i of X belongs to Y[i].
type Dataset struct {
	Schema       *Schema
	X            *mat.Dense
	Y            []float64
	Area         []float64
	Municipality []string
}

// Encoded is one encoded inference record.
type Encoded struct {
	Vector []float64
	AreaM2 float64
	Floor  FloorFeatures
}

// Encoder turns listing records into fixed-width feature vectors. Fit
// learns the location scores and freezes the column schema; every later
// transform reproduces that schema exactly.
type Encoder struct {
	cfg      EncoderConfig
	codec    FloorCodec
	tables   CategoryScoreTables
	location *LocationScorer
	schema   *Schema
	rng      *rand.Rand
	fitted   bool
}

// NewEncoder creates an unfitted encoder that owns a random source seeded
// with cfg.Seed.
func NewEncoder(cfg EncoderConfig) *Encoder {
	if cfg.GroundPolicy == "" {
		cfg.GroundPolicy = GroundExclude
	}
	if cfg.ConditionEncoding == "" {
		cfg.ConditionEncoding = ConditionOneHot
	}
	tables := DefaultScoreTables()
	if cfg.Tables != nil {
		tables = *cfg.Tables
	}
	return &Encoder{
		cfg:      cfg,
		codec:    NewFloorCodec(cfg.GroundPolicy),
		tables:   tables,
		location: NewLocationScorer(),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
	}
}

// preparedRow is a corpus row whose price and area parsed.
type preparedRow struct {
	rec   *models.ListingRecord
	price float64
	area  float64
}

func (p preparedRow) pricePerArea() float64 { return p.price / p.area }

// prepare parses price and area and drops the rows that cannot yield a
// finite positive target.
func prepare(records []*models.ListingRecord) (kept []preparedRow, dropped int) {
	kept = make([]preparedRow, 0, len(records))
	for _, r := range records {
		if r == nil {
			dropped++
			continue
		}
		price, err := ParsePrice(r.Price)
		if err != nil || price <= 0 {
			dropped++
			continue
		}
		area, err := ParseArea(r.AreaM2)
		if err != nil || area <= 0 {
			dropped++
			continue
		}
		if r.Rooms < 0 || math.IsNaN(r.Rooms) {
			dropped++
			continue
		}
		kept = append(kept, preparedRow{rec: r, price: price, area: area})
	}
	return kept, dropped
}

// Fit learns the location scores and freezes the schema from records.
// Rows with unparseable price or area, or a non-positive area, are skipped.
func (e *Encoder) Fit(records []*models.ListingRecord) (FitStats, error) {
	if e.fitted {
		return FitStats{}, ErrAlreadyFitted
	}

	kept, dropped := prepare(records)
	stats := FitStats{Rows: len(records), Kept: len(kept), Dropped: dropped}
	if len(kept) == 0 {
		return stats, ErrEmptyCorpus
	}

	priced := make([]PricedLocation, len(kept))
	conditions := map[string]struct{}{}
	types := map[string]struct{}{}
	heating := map[string]struct{}{}
	for i, p := range kept {
		priced[i] = PricedLocation{Municipality: p.rec.Municipality, PricePerArea: p.pricePerArea()}
		conditions[e.tables.Condition.Canonical(p.rec.Condition)] = struct{}{}
		types[e.tables.Type.Canonical(p.rec.Type)] = struct{}{}
		heating[e.tables.Heating.Canonical(p.rec.Heating)] = struct{}{}
	}
	e.location.Fit(priced)

	cols := []Column{
		numericColumn(ColArea),
		numericColumn(ColRooms),
		numericColumn(ColFloor),
		numericColumn(ColTopFloor),
	}
	if e.cfg.GroundPolicy == GroundDiscount {
		cols = append(cols, numericColumn(ColNegativeFloor))
	}
	cols = append(cols, numericColumn(ColParking), numericColumn(ColMunicipality))
	if e.cfg.ConditionEncoding == ConditionOrdinal {
		cols = append(cols, numericColumn(ColConditionScore))
	} else {
		cols = appendOneHot(cols, GroupCondition, conditions)
	}
	cols = appendOneHot(cols, GroupType, types)
	cols = appendOneHot(cols, GroupHeating, heating)

	e.schema = newSchema(cols)
	e.fitted = true
	return stats, nil
}

func appendOneHot(cols []Column, g Group, seen map[string]struct{}) []Column {
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		cols = append(cols, oneHotColumn(g, c))
	}
	return cols
}

// TransformTraining encodes the usable rows of records into a Dataset,
// jittering discrete features when noise is enabled.
func (e *Encoder) TransformTraining(records []*models.ListingRecord) *Dataset {
	e.mustBeFitted()

	kept, _ := prepare(records)
	ds := &Dataset{
		Schema:       e.schema,
		Y:            make([]float64, len(kept)),
		Area:         make([]float64, len(kept)),
		Municipality: make([]string, len(kept)),
	}
	if len(kept) == 0 {
		ds.X = &mat.Dense{}
		return ds
	}

	data := make([]float64, 0, len(kept)*e.schema.Len())
	for i, p := range kept {
		floor, _ := e.codec.Parse(p.rec.Floor)
		values := e.encode(p.rec, p.area, floor)
		if e.cfg.Noise {
			values[ColRooms] += e.jitter(roomsNoise)
			values[ColFloor] += e.jitter(floorNoise)
			values[ColParking] += e.jitter(parkingNoise)
		}
		data = append(data, e.schema.Reindex(values)...)

		ds.Y[i] = p.pricePerArea()
		ds.Area[i] = p.area
		ds.Municipality[i] = p.rec.Municipality
	}
	ds.X = mat.NewDense(len(kept), e.schema.Len(), data)
	return ds
}

// FitTransform fits the encoder on records and encodes them.
func (e *Encoder) FitTransform(records []*models.ListingRecord) (*Dataset, FitStats, error) {
	stats, err := e.Fit(records)
	if err != nil {
		return nil, stats, err
	}
	return e.TransformTraining(records), stats, nil
}

// Transform encodes a single inference record. Price is ignored. A record
// whose area, rooms, floor or parking flags cannot be encoded yields an
// *InputError.
func (e *Encoder) Transform(rec *models.ListingRecord) (Encoded, error) {
	e.mustBeFitted()

	if rec == nil {
		return Encoded{}, &InputError{Field: "record", Reason: "missing"}
	}
	area, err := ParseArea(rec.AreaM2)
	if err != nil {
		return Encoded{}, &InputError{Field: "Area_m2", Value: rec.AreaM2, Reason: "not a number"}
	}
	if area <= 0 {
		return Encoded{}, &InputError{Field: "Area_m2", Value: rec.AreaM2, Reason: "must be greater than zero"}
	}
	if rec.Rooms < 0 || math.IsNaN(rec.Rooms) || math.IsInf(rec.Rooms, 0) {
		return Encoded{}, &InputError{Field: "Rooms", Value: strconv.FormatFloat(rec.Rooms, 'f', -1, 64), Reason: "must be zero or more"}
	}
	floor, ok := e.codec.Parse(rec.Floor)
	if !ok {
		return Encoded{}, &InputError{Field: "Floor", Value: rec.Floor, Reason: "expected a ground marker or <Roman>/<total floors>"}
	}
	if err := checkParkingFlag("Parking_garage", rec.ParkingGarage); err != nil {
		return Encoded{}, err
	}
	if err := checkParkingFlag("Parking_outdoor", rec.ParkingOutdoor); err != nil {
		return Encoded{}, err
	}

	values := e.encode(rec, area, floor)
	return Encoded{Vector: e.schema.Reindex(values), AreaM2: area, Floor: floor}, nil
}

// encode derives the named feature values of one record. One-hot names
// outside the frozen schema are dropped by Reindex.
func (e *Encoder) encode(rec *models.ListingRecord, area float64, floor FloorFeatures) map[string]float64 {
	values := map[string]float64{
		ColArea:         area,
		ColRooms:        rec.Rooms,
		ColFloor:        float64(floor.Number),
		ColTopFloor:     boolFloat(floor.IsTop),
		ColParking:      float64(parkingEffect(rec.ParkingGarage, rec.ParkingOutdoor)),
		ColMunicipality: float64(e.location.Score(rec.Municipality)),
	}
	if e.cfg.GroundPolicy == GroundDiscount {
		values[ColNegativeFloor] = boolFloat(floor.IsGround)
	}
	if e.cfg.ConditionEncoding == ConditionOrdinal {
		values[ColConditionScore] = float64(e.tables.Condition.Score(rec.Condition))
	} else {
		values[oneHotColumn(GroupCondition, e.tables.Condition.Canonical(rec.Condition)).Name] = 1
	}
	values[oneHotColumn(GroupType, e.tables.Type.Canonical(rec.Type)).Name] = 1
	values[oneHotColumn(GroupHeating, e.tables.Heating.Canonical(rec.Heating)).Name] = 1
	return values
}

// parkingEffect counts present amenities. Source flags are inverted:
// 0 means present.
func parkingEffect(garage, outdoor int) int {
	hasGarage := garage == 0
	hasOutdoor := outdoor == 0
	n := 0
	if hasGarage {
		n++
	}
	if hasOutdoor {
		n++
	}
	return n
}

func checkParkingFlag(field string, flag int) error {
	if flag != 0 && flag != 1 {
		return &InputError{Field: field, Value: strconv.Itoa(flag), Reason: "must be 0 (present) or 1 (absent)"}
	}
	return nil
}

func (e *Encoder) jitter(halfWidth float64) float64 {
	return (e.rng.Float64()*2 - 1) * halfWidth
}

func (e *Encoder) mustBeFitted() {
	if !e.fitted {
		panic(ErrNotFitted)
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Fitted reports whether Fit has completed.
func (e *Encoder) Fitted() bool { return e.fitted }

// Schema returns the frozen schema, or nil before Fit.
func (e *Encoder) Schema() *Schema { return e.schema }

// Location returns the fitted location scorer.
func (e *Encoder) Location() *LocationScorer { return e.location }

// Tables returns the category score tables in use.
func (e *Encoder) Tables() CategoryScoreTables { return e.tables }

// Config returns the configuration the encoder was built with.
func (e *Encoder) Config() EncoderConfig { return e.cfg }

// ScaledColumns lists the numeric columns a Scaler should standardise.
// Indicator columns stay unscaled.
func (e *Encoder) ScaledColumns() []string {
	cols := []string{ColArea, ColRooms, ColFloor, ColParking, ColMunicipality}
	if e.cfg.ConditionEncoding == ConditionOrdinal {
		cols = append(cols, ColConditionScore)
	}
	return cols
}
