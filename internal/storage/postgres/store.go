package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stakeSwap/internal/model"
	"stakeSwap/internal/storage"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pool state, the operation
// journal and window metrics. Amounts are NUMERIC(20,0) so the full uint64
// range fits.
type Store struct {
	pool *pgxpool.Pool
	name string
}

// NewStore connects to dsn. Every row the store reads or writes is keyed by
// name, so several pools can share one database.
func NewStore(ctx context.Context, dsn, name string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if name == "" {
		return nil, fmt.Errorf("pool name is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, name: name}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Load reads the whole persisted state.
func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	row := s.pool.QueryRow(ctx, `SELECT seq, updated_at FROM stakeswap_meta WHERE name=$1`, s.name)
	var seq int64
	if err := row.Scan(&seq, &snap.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	snap.Seq = uint64(seq)

	rows, err := s.pool.Query(ctx, `
		SELECT mint, owner, amount::text FROM stakeswap_balances
		WHERE pool_name=$1 ORDER BY mint, owner
	`, s.name)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	snap.Balances, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Balance, error) {
		var b model.Balance
		var amount string
		if err := row.Scan(&b.Mint, &b.Owner, &amount); err != nil {
			return b, err
		}
		parsed, err := parseAmount(amount)
		b.Amount = parsed
		return b, err
	})
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load balances: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT mint, amount::text FROM stakeswap_supplies WHERE pool_name=$1 ORDER BY mint`, s.name)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	snap.Supplies, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Supply, error) {
		var sup model.Supply
		var amount string
		if err := row.Scan(&sup.Mint, &amount); err != nil {
			return sup, err
		}
		parsed, err := parseAmount(amount)
		sup.Amount = parsed
		return sup, err
	})
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load supplies: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT owner, address, staked_amount::text, last_update_time
		FROM stakeswap_positions WHERE pool_name=$1 ORDER BY owner
	`, s.name)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	snap.Positions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Position, error) {
		var pos model.Position
		var staked string
		if err := row.Scan(&pos.Owner, &pos.Address, &staked, &pos.LastUpdateTime); err != nil {
			return pos, err
		}
		parsed, err := parseAmount(staked)
		pos.StakedAmount = parsed
		return pos, err
	})
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load positions: %w", err)
	}

	return snap, true, nil
}

// Commit writes one change-set in a single transaction.
func (s *Store) Commit(ctx context.Context, cs model.ChangeSet) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `SELECT seq FROM stakeswap_meta WHERE name=$1 FOR UPDATE`, s.name).Scan(&seq)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if cs.Operation.Seq != uint64(seq)+1 {
			return fmt.Errorf("commit seq %d after %d: %w", cs.Operation.Seq, seq, storage.ErrSeqGap)
		}

		payload, err := json.Marshal(cs.Operation)
		if err != nil {
			return fmt.Errorf("marshal operation: %w", err)
		}

		batch := &pgx.Batch{}
		for _, b := range cs.Balances {
			batch.Queue(`
				INSERT INTO stakeswap_balances (pool_name, mint, owner, amount, updated_at)
				VALUES ($1, $2, $3, $4::text::numeric, now())
				ON CONFLICT (pool_name, mint, owner)
				DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
			`, s.name, b.Mint, b.Owner, formatAmount(b.Amount))
		}
		for _, sup := range cs.Supplies {
			batch.Queue(`
				INSERT INTO stakeswap_supplies (pool_name, mint, amount, updated_at)
				VALUES ($1, $2, $3::text::numeric, now())
				ON CONFLICT (pool_name, mint)
				DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
			`, s.name, sup.Mint, formatAmount(sup.Amount))
		}
		for _, pos := range cs.Positions {
			batch.Queue(`
				INSERT INTO stakeswap_positions (pool_name, owner, address, staked_amount, last_update_time, updated_at)
				VALUES ($1, $2, $3, $4::text::numeric, $5, now())
				ON CONFLICT (pool_name, owner)
				DO UPDATE SET
					address = EXCLUDED.address,
					staked_amount = EXCLUDED.staked_amount,
					last_update_time = EXCLUDED.last_update_time,
					updated_at = now()
			`, s.name, pos.Owner, pos.Address, formatAmount(pos.StakedAmount), pos.LastUpdateTime)
		}
		batch.Queue(`
			INSERT INTO stakeswap_journal (pool_name, seq, op_id, kind, owner, op_ts, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.name, int64(cs.Operation.Seq), cs.Operation.ID, string(cs.Operation.Kind), cs.Operation.Owner, cs.Operation.Timestamp, payload)
		batch.Queue(`
			INSERT INTO stakeswap_meta (name, seq, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET seq = EXCLUDED.seq, updated_at = EXCLUDED.updated_at
		`, s.name, int64(cs.Operation.Seq), cs.Operation.CommittedAt)

		return tx.SendBatch(ctx, batch).Close()
	})
}

// Journal streams committed operations with seq > afterSeq.
func (s *Store) Journal(ctx context.Context, afterSeq uint64, fn func(model.Operation) error) error {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM stakeswap_journal
		WHERE pool_name=$1 AND seq > $2 ORDER BY seq
	`, s.name, int64(afterSeq))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		var op model.Operation
		if err := json.Unmarshal(payload, &op); err != nil {
			return fmt.Errorf("decode operation: %w", err)
		}
		if err := fn(op); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PutWindowMetrics inserts or updates window metrics.
func (s *Store) PutWindowMetrics(ctx context.Context, metrics []model.WindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_name, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume_a, volume_b, fee_a, fee_b,
				liquidity_added, liquidity_removed, reserve_a, reserve_b,
				fee_rate_a, fee_rate_b, last_seq, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5,
				$6::text::numeric, $7::text::numeric, $8::text::numeric, $9::text::numeric,
				$10::text::numeric, $11::text::numeric, $12::text::numeric, $13::text::numeric,
				$14::text::numeric, $15::text::numeric, $16, now(), now()
			)
			ON CONFLICT (pool_name, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				liquidity_added = EXCLUDED.liquidity_added,
				liquidity_removed = EXCLUDED.liquidity_removed,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				last_seq = EXCLUDED.last_seq,
				updated_at = now()
		`,
			s.name,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.VolumeA,
			m.VolumeB,
			m.FeeA,
			m.FeeB,
			m.LiquidityAdded,
			m.LiquidityRemoved,
			m.ReserveA,
			m.ReserveB,
			m.FeeRateA,
			m.FeeRateB,
			int64(m.LastSeq),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts and last_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, uint64, bool, error) {
	if name == "" {
		return 0, 0, false, fmt.Errorf("state name required")
	}
	var ts, seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts, last_seq FROM report_state WHERE name=$1`, name)
	if err := row.Scan(&ts, &seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return uint64(ts), uint64(seq), true, nil
}

// SaveState upserts last_processed_ts and last_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_state (name, last_processed_ts, last_seq, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts,
			last_seq = EXCLUDED.last_seq,
			updated_at = now()
	`, name, int64(ts), int64(seq))
	return err
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", v, err)
	}
	return n, nil
}
