package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/news_analysis/internal/model"
)

// PostgresStore 可选的数据库镜像，按日期保存报告
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore 连接数据库并初始化表结构
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS news_reports (
			date TEXT PRIMARY KEY,
			sentiment_score INTEGER NOT NULL,
			sentiment_category TEXT NOT NULL,
			report JSONB NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_reports_generated_at ON news_reports (generated_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// Save 按日期写入，已存在时覆盖
func (s *PostgresStore) Save(ctx context.Context, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.Date, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO news_reports (date, sentiment_score, sentiment_category, report, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (date) DO UPDATE SET
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_category = EXCLUDED.sentiment_category,
			report = EXCLUDED.report,
			generated_at = EXCLUDED.generated_at,
			updated_at = CURRENT_TIMESTAMP`,
		report.Date, report.Sentiment.Score, string(report.Sentiment.Category), string(data), report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert report %s: %v", ErrPersistence, report.Date, err)
	}
	return nil
}

// Load 读取指定日期的报告，不存在时返回 (nil, nil)
func (s *PostgresStore) Load(ctx context.Context, date string) (*model.Report, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM news_reports WHERE date = $1`, date).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query report %s: %w", date, err)
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", date, err)
	}
	return &report, nil
}

// Dates 按日期倒序返回，limit <= 0 表示全部
func (s *PostgresStore) Dates(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT date FROM news_reports ORDER BY date DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
