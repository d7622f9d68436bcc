package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/org/vitalguard/pkg/models"
)

// PostgresBackend is a VitalsStore backed by PostgreSQL.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend opens a pgxpool connection and returns a ready backend.
func NewPostgresBackend(ctx context.Context, connStr string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Close() {
	p.pool.Close()
}

func (p *PostgresBackend) ListPatientIDs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT id FROM patients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *PostgresBackend) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	pat := models.Patient{ID: id}
	v := &pat.Vitals
	var recordedAt *time.Time
	var spo2 *int
	err := p.pool.QueryRow(ctx,
		`SELECT name, recorded_at, heart_rate, spo2, blood_pressure, temperature
		 FROM patients WHERE id = $1`,
		id,
	).Scan(&pat.Name, &recordedAt, &v.HeartRate, &spo2, &v.BloodPressure, &v.Temperature)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.PatientID = id
	v.Timestamp = derefTime(recordedAt)
	setSpO2(v, spo2)

	rows, err := p.pool.Query(ctx,
		`SELECT recorded_at, heart_rate, spo2, blood_pressure, temperature
		 FROM vitals_history WHERE patient_id = $1 ORDER BY seq`,
		id,
	)
	if err != nil {
		return nil, err
	}
	pat.History, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Vitals, error) {
		h := models.Vitals{PatientID: id}
		var at *time.Time
		var spo2 *int
		err := row.Scan(&at, &h.HeartRate, &spo2, &h.BloodPressure, &h.Temperature)
		h.Timestamp = derefTime(at)
		setSpO2(&h, spo2)
		return h, err
	})
	if err != nil {
		return nil, err
	}
	return &pat, nil
}

// SavePatient upserts the patient row and replaces its history in one
// transaction.
func (p *PostgresBackend) SavePatient(ctx context.Context, pat *models.Patient) error {
	if pat.ID == "" {
		return errors.New("patient id is required")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	v := pat.Vitals
	_, err = tx.Exec(ctx,
		`INSERT INTO patients (id, name, recorded_at, heart_rate, spo2, blood_pressure, temperature)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, recorded_at = EXCLUDED.recorded_at,
		   heart_rate = EXCLUDED.heart_rate, spo2 = EXCLUDED.spo2,
		   blood_pressure = EXCLUDED.blood_pressure, temperature = EXCLUDED.temperature`,
		pat.ID, pat.Name, nullableTime(v.Timestamp), v.HeartRate, nullableSpO2(v), v.BloodPressure, v.Temperature,
	)
	if err != nil {
		return fmt.Errorf("upserting patient: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vitals_history WHERE patient_id = $1`, pat.ID); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	if len(pat.History) > 0 {
		rows := make([][]any, len(pat.History))
		for i, h := range pat.History {
			rows[i] = []any{pat.ID, i, nullableTime(h.Timestamp), h.HeartRate, nullableSpO2(h), h.BloodPressure, h.Temperature}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"vitals_history"},
			[]string{"patient_id", "seq", "recorded_at", "heart_rate", "spo2", "blood_pressure", "temperature"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copying history: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// nullableSpO2 stores a missing reading as NULL and a reported 0 as 0.
func nullableSpO2(v models.Vitals) *int {
	if v.SpO2Missing {
		return nil
	}
	spo2 := v.SpO2
	return &spo2
}

func setSpO2(v *models.Vitals, spo2 *int) {
	if spo2 == nil {
		v.SpO2, v.SpO2Missing = 0, true
		return
	}
	v.SpO2 = *spo2
}
