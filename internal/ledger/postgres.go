package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists balances and settlement entries in Postgres.
type PostgresStore struct {
	pool    *pgxpool.Pool
	opening int64
}

// NewPostgresStore connects with the given DSN and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string, opening int64) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to ledger database: %w", err)
	}

	s := &PostgresStore{pool: pool, opening: opening}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS wallets (
		player   TEXT PRIMARY KEY,
		balance  BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settlements (
		id             BIGSERIAL PRIMARY KEY,
		player         TEXT NOT NULL,
		hand_id        TEXT NOT NULL,
		delta          BIGINT NOT NULL,
		prior_balance  BIGINT NOT NULL,
		new_balance    BIGINT NOT NULL,
		reconciled_late BOOLEAN NOT NULL DEFAULT FALSE,
		recorded_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS settlements_player_idx ON settlements (player, id);
	`)
	if err != nil {
		return fmt.Errorf("ensuring ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, player string) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO wallets (player, balance) VALUES ($1, $2)
		ON CONFLICT (player) DO UPDATE SET balance = wallets.balance
		RETURNING balance
	`, player, s.opening).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("reading balance for %s: %w", player, err)
	}
	return balance, nil
}

func (s *PostgresStore) RecordSettlement(ctx context.Context, e Entry) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// The write carries the prior balance the caller read; refuse to
		// apply it over a balance that has moved since.
		tag, err := tx.Exec(ctx, `
			UPDATE wallets SET balance = $1 WHERE player = $2 AND balance = $3
		`, e.NewBalance, e.Player, e.PriorBalance)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("balance for %s moved since read (expected %d)", e.Player, e.PriorBalance)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO settlements (player, hand_id, delta, prior_balance, new_balance, reconciled_late, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.Player, e.HandID, e.Delta, e.PriorBalance, e.NewBalance, e.NeedsReconciliation, e.At)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording settlement for %s: %w", e.Player, err)
	}
	return nil
}

func (s *PostgresStore) Entries(ctx context.Context, player string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player, hand_id, delta, prior_balance, new_balance, reconciled_late, recorded_at
		FROM settlements WHERE player = $1 ORDER BY id ASC
	`, player)
	if err != nil {
		return nil, fmt.Errorf("reading settlements for %s: %w", player, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Player, &e.HandID, &e.Delta, &e.PriorBalance, &e.NewBalance, &e.NeedsReconciliation, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
