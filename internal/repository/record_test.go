package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"partselect/parser/internal/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() domain.PartRecord {
	price := 44.95
	record := domain.EmptyPartRecord("https://www.partselect.com/PS11752778-1.htm")
	record.Name = "Refrigerator Door Shelf Bin"
	record.Price = &price
	record.Symptoms = []string{"Leaking"}
	return record
}

func newRepo(t *testing.T) (*recordRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := NewRecordRepository(mock).(*recordRepository)
	return repo, mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS part_records").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRecord(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	record := sampleRecord()

	mock.ExpectExec("INSERT INTO part_records").
		WithArgs("PS11752778", record.URL, record, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveRecord(context.Background(), "PS11752778", record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRecord_Error(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO part_records").
		WithArgs("PS1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.SaveRecord(context.Background(), "PS1", sampleRecord())
	assert.ErrorContains(t, err, "failed to save record PS1")
}

func TestGetRecord(t *testing.T) {
	repo, mock := newRepo(t)
	scrapedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := json.Marshal(sampleRecord())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT data, scraped_at FROM part_records").
		WithArgs("PS11752778").
		WillReturnRows(pgxmock.NewRows([]string{"data", "scraped_at"}).AddRow(data, scrapedAt))

	record, at, err := repo.GetRecord(context.Background(), "PS11752778")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), record)
	assert.Equal(t, scrapedAt, at)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecord_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT data, scraped_at FROM part_records").
		WithArgs("PS404").
		WillReturnRows(pgxmock.NewRows([]string{"data", "scraped_at"}))

	_, _, err := repo.GetRecord(context.Background(), "PS404")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
