package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ClmmLens/internal/domain/models"
	domrepo "ClmmLens/internal/domain/repository"
	applogger "ClmmLens/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHPriceStore reads daily closes from ClickHouse. It never writes rows.
type CHPriceStore struct {
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

var _ domrepo.HistoryStore = (*CHPriceStore)(nil)

func NewCHPriceStore(db *sql.DB, database, table string, l *applogger.Logger) (*CHPriceStore, error) {
	if !identRe.MatchString(database) || !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse identifier %q.%q", database, table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{db: db, database: database, table: table, l: l}, nil
}

func (s *CHPriceStore) qualified() string {
	return s.database + "." + s.table
}

// Schema returns the idempotent DDL for the closes table.
func (s *CHPriceStore) Schema() []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    asset String,
    day Date,
    close Float64
) ENGINE = ReplacingMergeTree
ORDER BY (asset, day)`, s.qualified()),
	}
}

func (s *CHPriceStore) dailyClosesQuery() string {
	return fmt.Sprintf(`
        SELECT day, close
        FROM %s FINAL
        WHERE asset = ? AND day >= today() - ?
        ORDER BY day ASC
    `, s.qualified())
}

// DailyCloses returns up to days closes for asset, oldest first.
func (s *CHPriceStore) DailyCloses(ctx context.Context, asset models.Asset, days int) ([]models.PricePoint, error) {
	start := time.Now()
	symbol := strings.ToUpper(asset.Symbol)

	rows, err := s.db.QueryContext(ctx, s.dailyClosesQuery(), symbol, days)
	if err != nil {
		s.l.Error("clickhouse daily_closes query error",
			applogger.String("table", s.qualified()),
			applogger.String("asset", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("daily closes: %w", err)
	}
	defer rows.Close()

	out := make([]models.PricePoint, 0, days)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Time, &p.Price); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse daily_closes ok",
		applogger.String("asset", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
