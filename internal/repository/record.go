package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"partselect/parser/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrRecordNotFound = errors.New("record not found")

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RecordRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveRecord(ctx context.Context, partNumber string, record domain.PartRecord) error
	GetRecord(ctx context.Context, partNumber string) (domain.PartRecord, time.Time, error)
}

type recordRepository struct {
	db  DB
	now func() time.Time
}

func NewRecordRepository(db DB) RecordRepository {
	return &recordRepository{
		db:  db,
		now: time.Now,
	}
}

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS part_records (
		id         TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		data       JSONB NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL
	)`

func (r *recordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create part_records table: %w", err)
	}
	return nil
}

func (r *recordRepository) SaveRecord(ctx context.Context, partNumber string, record domain.PartRecord) error {
	query := `
	INSERT INTO part_records (id, url, data, scraped_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET url = $2, data = $3, scraped_at = $4`
	_, err := r.db.Exec(ctx, query, partNumber, record.URL, record, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", partNumber, err)
	}

	return nil
}

func (r *recordRepository) GetRecord(ctx context.Context, partNumber string) (domain.PartRecord, time.Time, error) {
	query := `SELECT data, scraped_at FROM part_records WHERE id = $1`

	var (
		data      []byte
		scrapedAt time.Time
	)
	if err := r.db.QueryRow(ctx, query, partNumber).Scan(&data, &scrapedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PartRecord{}, time.Time{}, ErrRecordNotFound
		}
		return domain.PartRecord{}, time.Time{}, fmt.Errorf("failed to load record %s: %w", partNumber, err)
	}

	record := domain.EmptyPartRecord("")
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.PartRecord{}, time.Time{}, fmt.Errorf("failed to decode record %s: %w", partNumber, err)
	}
	return record, scrapedAt, nil
}
