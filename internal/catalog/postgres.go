package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/logger"
	"github.com/spigell/tender-recommender/internal/utils"
)

const (
	defaultPingAttempts = 3
	defaultPingBackoff  = time.Second

	fetchAllQuery = `SELECT item_id, item_name, description, cost_price FROM items_master ORDER BY id`
	insertQuery   = `INSERT INTO items_master (item_id, item_name, description, cost_price) VALUES ($1, $2, $3, $4)`
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS items_master (
		id BIGSERIAL PRIMARY KEY,
		item_id TEXT UNIQUE,
		item_name TEXT,
		description TEXT,
		cost_price DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_master_item_name ON items_master(item_name)`,
	`CREATE INDEX IF NOT EXISTS idx_items_master_description ON items_master(description)`,
}

type PostgresConfig struct {
	DSN          string        `mapstructure:"dsn"`
	DSNFile      string        `mapstructure:"dsn-file"`
	PingAttempts int           `mapstructure:"ping-attempts"`
	PingBackoff  time.Duration `mapstructure:"ping-backoff"`
}

// PostgresStore reads and writes the items_master table.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore wraps an already opened database handle.
func NewPostgresStore(db *sql.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.WithFields(log, logger.StoreFields(BackendPostgres, "items_master")...),
	}
}

// OpenPostgres opens a pgx-backed handle and pings it, retrying with a fixed backoff.
func OpenPostgres(ctx context.Context, cfg *PostgresConfig, log *zap.Logger) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is not configured")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	attempts := cfg.PingAttempts
	if attempts <= 0 {
		attempts = defaultPingAttempts
	}
	backoff := cfg.PingBackoff
	if backoff <= 0 {
		backoff = defaultPingBackoff
	}

	store := NewPostgresStore(db, log)
	if err := store.ping(ctx, attempts, backoff); err != nil {
		db.Close()
		return nil, err
	}

	store.logger.Info("postgres catalog connection established")
	return store, nil
}

func (s *PostgresStore) ping(ctx context.Context, attempts int, backoff time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = s.db.PingContext(ctx); err == nil {
			return nil
		}

		s.logger.Warn("pinging postgres failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}
		if waitErr := utils.WaitFor(ctx, backoff); waitErr != nil {
			return fmt.Errorf("pinging postgres: %w", waitErr)
		}
	}

	return fmt.Errorf("pinging postgres: %w", err)
}

func (s *PostgresStore) FetchAll(ctx context.Context) (*Items, error) {
	rows, err := s.db.QueryContext(ctx, fetchAllQuery)
	if err != nil {
		return nil, fmt.Errorf("querying items_master: %w", err)
	}
	defer rows.Close()

	items := &Items{}
	for rows.Next() {
		var (
			id, name, description sql.NullString
			cost              sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &description, &cost); err != nil {
			return nil, fmt.Errorf("scanning items_master row: %w", err)
		}

		item := &Item{ID: id.String, Name: name.String, Description: description.String}
		if cost.Valid {
			item.CostPrice = Cost(cost.Float64)
		}
		items.Items = append(items.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items_master rows: %w", err)
	}

	s.logger.Debug("fetched catalog from postgres", zap.Int("count", items.Len()))
	return items, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring items_master schema: %w", err)
		}
	}

	s.logger.Debug("ensured items_master schema")
	return nil
}

// Save inserts all items in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, items *Items) error {
	if items.Len() == 0 {
		return nil
	}

	items.ensureIDs()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items.Items {
		var cost sql.NullFloat64
		if item.CostPrice != nil {
			cost = sql.NullFloat64{Float64: *item.CostPrice, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, item.ID, item.Name, item.Description, cost); err != nil {
			return fmt.Errorf("inserting item %q: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}

	s.logger.Info("saved items to postgres", zap.Int("count", items.Len()))
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
