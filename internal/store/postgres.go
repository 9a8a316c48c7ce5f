package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"deal-intake/internal/common/database"
	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

const PostgresName = "postgres"

// PostgresStore inserts one row per deal into the offers table.
type PostgresStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if table == "" {
		table = "offers"
	}
	if !database.ValidTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{db: db, table: table, now: time.Now}, nil
}

func (s *PostgresStore) Name() string { return PostgresName }

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStoreUnavailableError(PostgresName, err)
	}
	return nil
}

func (s *PostgresStore) Submit(ctx context.Context, records []models.Attributes) ([]Result, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, batch_id, company_name, geo, language, source, funnels, cpa, crg, cpl, deduction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`, s.table)

	batchID := BatchID(ctx)
	results := make([]Result, 0, len(records))
	for i, rec := range records {
		funnels, err := json.Marshal(funnelsOf(rec))
		if err != nil {
			results = append(results, Result{Index: i, Err: err})
			continue
		}

		var id string
		err = s.db.QueryRowContext(ctx, query,
			uuid.New().String(),
			batchID,
			rec.String(models.AttrCompanyName),
			rec.String(models.AttrGeo),
			rec.String(models.AttrLanguage),
			rec.String(models.AttrSource),
			string(funnels),
			amountArg(rec, models.AttrCPA),
			amountArg(rec, models.AttrCRG),
			amountArg(rec, models.AttrCPL),
			amountArg(rec, models.AttrDeduction),
			s.now().UTC(),
		).Scan(&id)
		if err != nil {
			if fatal := fatalSQLError(err); fatal != nil {
				return results, fatal
			}
			results = append(results, Result{
				Index: i,
				Err:   apperrors.NewStoreSubmissionRejectedError(PostgresName, err.Error()),
			})
			continue
		}
		results = append(results, Result{Index: i, OK: true, ExternalID: id})
	}
	return results, nil
}

// fatalSQLError reports connection and authentication failures, which affect every record.
func fatalSQLError(err error) error {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewStoreUnavailableError(PostgresName, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28":
			return apperrors.NewStoreCredentialMissingError(PostgresName, pqErr.Message)
		case "08", "57":
			return apperrors.NewStoreUnavailableError(PostgresName, err)
		}
	}
	return nil
}
