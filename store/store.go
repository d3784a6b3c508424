package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ureshvahalia/bridge-deals-ingest/compare"
	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/reconcile"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Write helpers
------------------------------*/

func (db *DB) InsertBatch(ctx context.Context, id, source string) error {
	_, err := db.Exec(ctx, `
        INSERT INTO batches(id, source) VALUES ($1,$2)
    `, id, source)
	return err
}

func (db *DB) FinishBatch(ctx context.Context, id string, boards int) error {
	_, err := db.Exec(ctx, `
        UPDATE batches SET boards = $2, finished_at = now() WHERE id = $1
    `, id, boards)
	return err
}

// UpsertDeal records the shared deal once; later boards of the same deal
// leave the row alone except for a late-arriving double-dummy table.
func (db *DB) UpsertDeal(ctx context.Context, d *engine.Deal, dd *[4][5]int) error {
	var ddJSON any
	if dd != nil {
		b, err := json.Marshal(dd)
		if err != nil {
			return err
		}
		ddJSON = b
	}
	_, err := db.Exec(ctx, `
        INSERT INTO deals(key, board_no, dealer, vul, north, east, south, west, dd_tricks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (key) DO UPDATE
          SET dd_tricks = COALESCE(deals.dd_tricks, EXCLUDED.dd_tricks)
    `, string(d.Key()), d.Board, d.Dealer.String(), d.Vul.String(),
		d.Hands[engine.North].String(), d.Hands[engine.East].String(),
		d.Hands[engine.South].String(), d.Hands[engine.West].String(), ddJSON)
	return err
}

func (db *DB) InsertBoard(ctx context.Context, batchID string, b *reconcile.CanonicalBoard) error {
	record, err := json.Marshal(b)
	if err != nil {
		return err
	}
	var dealKey any
	if b.DealKey != "" {
		dealKey = string(b.DealKey)
	}
	_, err = db.Exec(ctx, `
        INSERT INTO boards(id, batch_id, deal_key, source, event, match, table_name, board_no, summary, record)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, b.ID, batchID, dealKey, b.Source, b.Event, b.Match, b.Table, b.Board, string(b.Summary), record)
	return err
}

func (db *DB) InsertComparison(ctx context.Context, batchID string, c *compare.Comparison) error {
	_, err := db.Exec(ctx, `
        INSERT INTO comparisons(batch_id, deal_key, table1_board, table2_board,
                                swing, imps, oriented,
                                same_contract, same_declarer, same_lead, same_opening)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, batchID, string(c.Key), c.Table1.ID, c.Table2.ID,
		c.Swing, c.IMPs, c.Oriented,
		c.SameContract, c.SameDeclarer, c.SameLead, c.SameOpening)
	return err
}

/* -----------------------------
   Read helpers
------------------------------*/

type BatchInfo struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Boards     int        `json:"boards"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (db *DB) ListBatches(ctx context.Context, limit int) ([]BatchInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
        SELECT id, source, boards, started_at, finished_at
          FROM batches ORDER BY started_at DESC LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BatchInfo
	for rows.Next() {
		var b BatchInfo
		if err := rows.Scan(&b.ID, &b.Source, &b.Boards, &b.StartedAt, &b.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBoard returns the stored canonical record. Not-found comes back as
// (nil, nil).
func (db *DB) GetBoard(ctx context.Context, id string) (*reconcile.CanonicalBoard, error) {
	var record []byte
	err := db.QueryRow(ctx, `SELECT record FROM boards WHERE id = $1`, id).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b reconcile.CanonicalBoard
	if err := json.Unmarshal(record, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) ListBoards(ctx context.Context, batchID string) ([]*reconcile.CanonicalBoard, error) {
	rows, err := db.Query(ctx, `
        SELECT record FROM boards WHERE batch_id = $1 ORDER BY board_no, table_name
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*reconcile.CanonicalBoard
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var b reconcile.CanonicalBoard
		if err := json.Unmarshal(record, &b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

type ComparisonRow struct {
	ID           int64  `json:"id"`
	DealKey      string `json:"deal_key"`
	Table1Board  string `json:"table1_board"`
	Table2Board  string `json:"table2_board"`
	Swing        *int   `json:"swing,omitempty"`
	IMPs         *int   `json:"imps,omitempty"`
	Oriented     bool   `json:"oriented"`
	SameContract bool   `json:"same_contract"`
	SameDeclarer bool   `json:"same_declarer"`
	SameLead     bool   `json:"same_lead"`
	SameOpening  bool   `json:"same_opening"`
}

func (db *DB) ListComparisons(ctx context.Context, batchID string) ([]ComparisonRow, error) {
	rows, err := db.Query(ctx, `
        SELECT id, deal_key, table1_board, table2_board, swing, imps, oriented,
               same_contract, same_declarer, same_lead, same_opening
          FROM comparisons WHERE batch_id = $1 ORDER BY id
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ComparisonRow
	for rows.Next() {
		var c ComparisonRow
		if err := rows.Scan(&c.ID, &c.DealKey, &c.Table1Board, &c.Table2Board,
			&c.Swing, &c.IMPs, &c.Oriented,
			&c.SameContract, &c.SameDeclarer, &c.SameLead, &c.SameOpening); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type DegradedBoard struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	Source      string          `json:"source"`
	BoardNo     int             `json:"board_no"`
	Summary     string          `json:"summary"`
	Diagnostics json.RawMessage `json:"diagnostics,omitempty"`
}

// DegradedBoards lists every stored board whose reconciliation left
// anything short of a full match.
func (db *DB) DegradedBoards(ctx context.Context, batchID string) ([]DegradedBoard, error) {
	rows, err := db.Query(ctx, `
        SELECT id, batch_id, source, board_no, summary, diagnostics
          FROM degraded_boards WHERE batch_id = $1 ORDER BY board_no
    `, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DegradedBoard
	for rows.Next() {
		var d DegradedBoard
		if err := rows.Scan(&d.ID, &d.BatchID, &d.Source, &d.BoardNo, &d.Summary, &d.Diagnostics); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveBatch persists a full reconciliation run: batch row, shared deals,
// boards, then comparisons.
func (db *DB) SaveBatch(ctx context.Context, batchID, source string,
	boards []*reconcile.CanonicalBoard, result *compare.Result) error {
	if err := db.InsertBatch(ctx, batchID, source); err != nil {
		return err
	}
	for _, b := range boards {
		if b.Deal != nil {
			var dd *[4][5]int
			if t, ok := b.DD.Get(); ok {
				v := [4][5]int(t)
				dd = &v
			}
			if err := db.UpsertDeal(ctx, b.Deal, dd); err != nil {
				return err
			}
		}
		if err := db.InsertBoard(ctx, batchID, b); err != nil {
			return err
		}
	}
	if result != nil {
		for _, c := range result.Comparisons {
			if err := db.InsertComparison(ctx, batchID, c); err != nil {
				return err
			}
		}
	}
	return db.FinishBatch(ctx, batchID, len(boards))
}
