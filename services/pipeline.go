package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"apartment-estimator/features"
	"apartment-estimator/models"
	"apartment-estimator/regression"
	"apartment-estimator/utils"
)

// ErrNotTrained is the panic value for predictions before the first Fit.
var ErrNotTrained = errors.New("pipeline: predict called before fit")

// PipelineConfig wires the encoder, scaler and estimator together.
type PipelineConfig struct {
	Strategy regression.Strategy
	Alpha    float64
	Split    regression.SplitConfig
	Encoder  features.EncoderConfig
	Currency string
}

// fittedState is everything one training run produced. It is never
// mutated after Fit stores it.
type fittedState struct {
	encoder *features.Encoder
	scaler  *features.Scaler
	model   regression.Estimator
	report  models.EvaluationReport
	rooms   []float64
}

// Pipeline trains price-per-area models and serves predictions. Refits
// build a complete new state and swap it in atomically, so concurrent
// predictions always see one consistent model.
type Pipeline struct {
	cfg    PipelineConfig
	logger *utils.Logger
	state  atomic.Pointer[fittedState]
}

// NewPipeline creates an untrained pipeline.
func NewPipeline(cfg PipelineConfig, logger *utils.Logger) *Pipeline {
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Fit encodes records, fits the scaler, trains and evaluates the
// estimator, then publishes the result. A failure leaves the previous
// state in place.
func (p *Pipeline) Fit(ctx context.Context, records []*models.ListingRecord) (models.EvaluationReport, error) {
	if err := ctx.Err(); err != nil {
		return models.EvaluationReport{}, err
	}
	start := time.Now()

	encoder := features.NewEncoder(p.cfg.Encoder)
	ds, stats, err := encoder.FitTransform(records)
	if err != nil {
		return models.EvaluationReport{}, fmt.Errorf("pipeline: encode corpus: %w", err)
	}
	if stats.Dropped > 0 {
		p.logger.Warn("[pipeline] Skipped %d of %d rows with unusable price or area", stats.Dropped, stats.Rows)
	}

	scaler := features.NewScaler(encoder.ScaledColumns()...)
	if err := scaler.Fit(ds.Schema, ds.X); err != nil {
		return models.EvaluationReport{}, fmt.Errorf("pipeline: fit scaler: %w", err)
	}
	scaled := scaler.TransformMatrix(ds.X)

	model, err := regression.New(p.cfg.Strategy, regression.Options{Alpha: p.cfg.Alpha})
	if err != nil {
		return models.EvaluationReport{}, fmt.Errorf("pipeline: %w", err)
	}
	metrics, err := regression.Fit(model, scaled, ds.Y, p.cfg.Split)
	if err != nil {
		return models.EvaluationReport{}, fmt.Errorf("pipeline: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return models.EvaluationReport{}, err
	}

	desc := model.Describe()
	report := models.EvaluationReport{
		RunID:          uuid.NewString(),
		Strategy:       string(desc.Strategy),
		Degree:         desc.Degree,
		Alpha:          desc.Alpha,
		RMSE:           metrics.RMSE,
		R2:             metrics.R2,
		AveragePrice:   metrics.AveragePrice,
		MinPrice:       floats.Min(ds.Y),
		MaxPrice:       floats.Max(ds.Y),
		CorpusRows:     stats.Rows,
		DroppedRows:    stats.Dropped,
		TrainRows:      metrics.TrainRows,
		TestRows:       metrics.TestRows,
		Features:       ds.Schema.Len(),
		GroundPolicy:   string(encoder.Config().GroundPolicy),
		TrainedAt:      time.Now().UTC(),
		TrainingMillis: time.Since(start).Milliseconds(),
	}

	p.state.Store(&fittedState{
		encoder: encoder,
		scaler:  scaler,
		model:   model,
		report:  report,
		rooms:   distinctRooms(records),
	})

	p.logger.Info("[pipeline] Trained %s model on %d rows, %d features (RMSE %.2f, R² %.4f)",
		report.Strategy, report.TrainRows, report.Features, report.RMSE, report.R2)
	return report, nil
}

// Fitted reports whether a model has been published.
func (p *Pipeline) Fitted() bool {
	return p.state.Load() != nil
}

// Report returns the evaluation of the current model.
func (p *Pipeline) Report() (models.EvaluationReport, bool) {
	st := p.state.Load()
	if st == nil {
		return models.EvaluationReport{}, false
	}
	return st.report, true
}

func (p *Pipeline) mustState() *fittedState {
	st := p.state.Load()
	if st == nil {
		panic(ErrNotTrained)
	}
	return st
}

type prediction struct {
	pricePerArea float64
	area         float64
	discounted   bool
}

func (p *Pipeline) predict(st *fittedState, rec *models.ListingRecord) (prediction, error) {
	enc, err := st.encoder.Transform(rec)
	if err != nil {
		return prediction{}, err
	}
	ppa, err := st.model.Predict(st.scaler.Transform(enc.Vector))
	if err != nil {
		return prediction{}, fmt.Errorf("pipeline: predict: %w", err)
	}
	out := prediction{pricePerArea: ppa, area: enc.AreaM2}
	if enc.Floor.IsGround && st.encoder.Config().GroundPolicy == features.GroundDiscount {
		out.pricePerArea *= features.GroundFloorDiscount
		out.discounted = true
	}
	return out, nil
}

// PredictPricePerArea estimates the price per square metre of rec.
func (p *Pipeline) PredictPricePerArea(rec *models.ListingRecord) (float64, error) {
	pr, err := p.predict(p.mustState(), rec)
	if err != nil {
		return 0, err
	}
	return pr.pricePerArea, nil
}

// PredictTotal estimates rec's price per square metre and total price.
func (p *Pipeline) PredictTotal(rec *models.ListingRecord) (models.Estimate, error) {
	st := p.mustState()
	pr, err := p.predict(st, rec)
	if err != nil {
		return models.Estimate{}, err
	}
	return p.estimate(st, rec, pr), nil
}

// estimate rounds a prediction to cents. The total is the rounded price
// per square metre times the area, so the two displayed figures agree.
func (p *Pipeline) estimate(st *fittedState, rec *models.ListingRecord, pr prediction) models.Estimate {
	ppa := decimal.NewFromFloat(pr.pricePerArea).Round(2)
	return models.Estimate{
		Municipality:   rec.Municipality,
		AreaM2:         pr.area,
		PricePerArea:   ppa,
		Total:          ppa.Mul(decimal.NewFromFloat(pr.area)).Round(2),
		Currency:       p.cfg.Currency,
		Strategy:       st.report.Strategy,
		GroundDiscount: pr.discounted,
	}
}

// BatchResult is the outcome of one record of PredictBatch.
type BatchResult struct {
	Index    int
	Record   *models.ListingRecord
	Estimate models.Estimate
	Err      error
}

// PredictBatch prices records concurrently on up to workers goroutines.
// Results keep the input order; per-record failures are reported in Err.
// Every record is priced by the same model even if a refit lands midway.
func (p *Pipeline) PredictBatch(ctx context.Context, records []*models.ListingRecord, workers int) []BatchResult {
	st := p.mustState()
	results := make([]BatchResult, len(records))
	pool := utils.NewWorkerPool(workers, 0)

	for i, rec := range records {
		results[i] = BatchResult{Index: i, Record: rec}
		pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			pr, err := p.predict(st, rec)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Estimate = p.estimate(st, rec, pr)
		})
	}
	pool.Wait()
	return results
}

// Vocabulary lists the values a listing form can offer.
type Vocabulary struct {
	Municipalities []features.LocationRank `json:"municipalities"`
	Rooms          []float64               `json:"rooms"`
	Types          []string                `json:"types"`
	Conditions     []string                `json:"conditions"`
	Heating        []string                `json:"heating"`
	GroundPolicy   string                  `json:"ground_floor_policy"`
}

// Vocabulary returns the categories the current model was trained on.
func (p *Pipeline) Vocabulary() Vocabulary {
	st := p.mustState()
	schema := st.encoder.Schema()
	conditions := schema.Categories(features.GroupCondition)
	if len(conditions) == 0 {
		conditions = st.encoder.Tables().Condition.Known()
	}
	return Vocabulary{
		Municipalities: st.encoder.Location().Ranking(),
		Rooms:          append([]float64(nil), st.rooms...),
		Types:          schema.Categories(features.GroupType),
		Conditions:     conditions,
		Heating:        schema.Categories(features.GroupHeating),
		GroundPolicy:   string(st.encoder.Config().GroundPolicy),
	}
}

// ModelInfo describes the current model in detail.
type ModelInfo struct {
	Report  models.EvaluationReport `json:"report"`
	Model   regression.Description  `json:"model"`
	Columns []features.Column       `json:"columns"`
	Scaling []features.ColumnStats  `json:"scaling"`
}

// Describe returns the current model's report, schema and scaling.
func (p *Pipeline) Describe() (ModelInfo, bool) {
	st := p.state.Load()
	if st == nil {
		return ModelInfo{}, false
	}
	return ModelInfo{
		Report:  st.report,
		Model:   st.model.Describe(),
		Columns: st.encoder.Schema().Columns(),
		Scaling: st.scaler.Stats(),
	}, true
}

func distinctRooms(records []*models.ListingRecord) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, r := range records {
		if r == nil || r.Rooms <= 0 {
			continue
		}
		if _, ok := seen[r.Rooms]; !ok {
			seen[r.Rooms] = struct{}{}
			out = append(out, r.Rooms)
		}
	}
	sort.Float64s(out)
	return out
}
