package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"apartment-estimator/models"
)

const insertBatchSize = 50

// dialect holds the differences between the SQL backends.
type dialect struct {
	name        string
	idColumn    string
	timestamp   string
	placeholder func(n int) string
}

var (
	postgresDialect = dialect{
		name:        "postgres",
		idColumn:    "id SERIAL PRIMARY KEY",
		timestamp:   "TIMESTAMPTZ",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
	sqliteDialect = dialect{
		name:        "sqlite",
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp:   "TIMESTAMP",
		placeholder: func(int) string { return "?" },
	}
)

// sqlStore implements ListingStore over database/sql for both backends.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS apartments (
			%s,
			url             TEXT UNIQUE,
			title           TEXT NOT NULL DEFAULT '',
			price           TEXT NOT NULL DEFAULT '',
			area_m2         TEXT NOT NULL DEFAULT '',
			municipality    TEXT NOT NULL DEFAULT '',
			rooms           DOUBLE PRECISION NOT NULL DEFAULT 0,
			floor_code      TEXT NOT NULL DEFAULT '',
			building_type   TEXT NOT NULL DEFAULT '',
			apt_condition   TEXT NOT NULL DEFAULT '',
			heating         TEXT NOT NULL DEFAULT '',
			parking_garage  INTEGER NOT NULL DEFAULT 1,
			parking_outdoor INTEGER NOT NULL DEFAULT 1,
			created_at      %s NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.d.idColumn, s.d.timestamp),
		`CREATE INDEX IF NOT EXISTS idx_apartments_municipality ON apartments(municipality)`,
		`CREATE INDEX IF NOT EXISTS idx_apartments_type ON apartments(building_type)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS training_runs (
			run_id          TEXT PRIMARY KEY,
			strategy        TEXT NOT NULL,
			degree          INTEGER NOT NULL DEFAULT 0,
			alpha           DOUBLE PRECISION NOT NULL DEFAULT 0,
			rmse            DOUBLE PRECISION NOT NULL,
			r2              DOUBLE PRECISION NOT NULL,
			average_price   DOUBLE PRECISION NOT NULL,
			min_price       DOUBLE PRECISION NOT NULL,
			max_price       DOUBLE PRECISION NOT NULL,
			corpus_rows     INTEGER NOT NULL,
			dropped_rows    INTEGER NOT NULL,
			train_rows      INTEGER NOT NULL,
			test_rows       INTEGER NOT NULL,
			features        INTEGER NOT NULL,
			ground_policy   TEXT NOT NULL DEFAULT '',
			training_ms     BIGINT NOT NULL DEFAULT 0,
			trained_at      %s NOT NULL
		)`, s.d.timestamp),
		`CREATE INDEX IF NOT EXISTS idx_training_runs_trained_at ON training_runs(trained_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: migrate: %w", s.d.name, err)
		}
	}
	return nil
}

// ReplaceAll deletes every stored apartment and inserts listings in one
// transaction. Rows whose URL is already present are skipped. It returns
// the number of rows inserted.
func (s *sqlStore) ReplaceAll(ctx context.Context, listings []*models.ListingRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", s.d.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM apartments"); err != nil {
		return 0, fmt.Errorf("%s: clear: %w", s.d.name, err)
	}

	inserted := 0
	for i := 0; i < len(listings); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(listings) {
			end = len(listings)
		}
		n, err := s.insertBatch(ctx, tx, listings[i:end])
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", s.d.name, err)
	}
	return inserted, nil
}

const apartmentColumns = 12

func (s *sqlStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.ListingRecord) (int, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*apartmentColumns)

	n := 0
	for _, l := range batch {
		if l == nil {
			continue
		}
		ph := make([]string, apartmentColumns)
		for j := range ph {
			n++
			ph[j] = s.d.placeholder(n)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			sql.NullString{String: l.URL, Valid: l.URL != ""},
			l.Title, l.Price, l.AreaM2, l.Municipality, l.Rooms, l.Floor,
			l.Type, l.Condition, l.Heating, l.ParkingGarage, l.ParkingOutdoor)
	}
	if len(valueStrings) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO apartments (url, title, price, area_m2, municipality, rooms, floor_code,
			building_type, apt_condition, heating, parking_garage, parking_outdoor)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	res, err := tx.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("%s: insert batch: %w", s.d.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return len(valueStrings), nil
	}
	return int(affected), nil
}

// FetchAll retrieves all stored apartments in insertion order.
func (s *sqlStore) FetchAll(ctx context.Context) ([]*models.ListingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, price, area_m2, municipality, rooms, floor_code,
			building_type, apt_condition, heating, parking_garage, parking_outdoor
		FROM apartments
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.d.name, err)
	}
	defer rows.Close()

	var listings []*models.ListingRecord
	for rows.Next() {
		var (
			l   models.ListingRecord
			url sql.NullString
		)
		if err := rows.Scan(
			&url, &l.Title, &l.Price, &l.AreaM2, &l.Municipality, &l.Rooms, &l.Floor,
			&l.Type, &l.Condition, &l.Heating, &l.ParkingGarage, &l.ParkingOutdoor,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.d.name, err)
		}
		l.URL = url.String
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// SaveRun records the evaluation of one training run.
func (s *sqlStore) SaveRun(ctx context.Context, run models.EvaluationReport) error {
	ph := make([]string, 17)
	for i := range ph {
		ph[i] = s.d.placeholder(i + 1)
	}
	query := fmt.Sprintf(`
		INSERT INTO training_runs (run_id, strategy, degree, alpha, rmse, r2, average_price,
			min_price, max_price, corpus_rows, dropped_rows, train_rows, test_rows, features,
			ground_policy, training_ms, trained_at)
		VALUES (%s)
	`, strings.Join(ph, ","))

	_, err := s.db.ExecContext(ctx, query,
		run.RunID, run.Strategy, run.Degree, run.Alpha, run.RMSE, run.R2, run.AveragePrice,
		run.MinPrice, run.MaxPrice, run.CorpusRows, run.DroppedRows, run.TrainRows, run.TestRows,
		run.Features, run.GroundPolicy, run.TrainingMillis, run.TrainedAt.UTC())
	if err != nil {
		return fmt.Errorf("%s: save run: %w", s.d.name, err)
	}
	return nil
}

// Runs returns up to limit training runs, newest first.
func (s *sqlStore) Runs(ctx context.Context, limit int) ([]models.EvaluationReport, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
		SELECT run_id, strategy, degree, alpha, rmse, r2, average_price, min_price, max_price,
			corpus_rows, dropped_rows, train_rows, test_rows, features, ground_policy,
			training_ms, trained_at
		FROM training_runs
		ORDER BY trained_at DESC
		LIMIT %s
	`, s.d.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: list runs: %w", s.d.name, err)
	}
	defer rows.Close()

	var runs []models.EvaluationReport
	for rows.Next() {
		var r models.EvaluationReport
		if err := rows.Scan(
			&r.RunID, &r.Strategy, &r.Degree, &r.Alpha, &r.RMSE, &r.R2, &r.AveragePrice,
			&r.MinPrice, &r.MaxPrice, &r.CorpusRows, &r.DroppedRows, &r.TrainRows, &r.TestRows,
			&r.Features, &r.GroundPolicy, &r.TrainingMillis, &r.TrainedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan run: %w", s.d.name, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
