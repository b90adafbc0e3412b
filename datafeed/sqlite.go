package datafeed

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/stratlab/market"
)

const barSchema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS ranges (
	symbol TEXT NOT NULL,
	start  TEXT NOT NULL,
	end    TEXT NOT NULL,
	PRIMARY KEY (symbol, start, end)
);
`

// SQLiteCache wraps a Source with an on-disk bar cache. It stores raw price
// data only; a (symbol, start, end) range already recorded is served from
// disk without touching the inner source.
type SQLiteCache struct {
	db  *sql.DB
	src Source
}

func NewSQLiteCache(path string, src Source) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(barSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteCache{db: db, src: src}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Fetch(ctx context.Context, symbol string, start, end time.Time) (market.History, error) {
	const layout = "2006-01-02"
	s, e := start.Format(layout), end.Format(layout)

	cached, err := c.haveRange(ctx, symbol, s, e)
	if err != nil {
		return nil, err
	}
	if cached {
		return c.load(ctx, symbol, s, e)
	}

	h, err := c.src.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, symbol, s, e, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (c *SQLiteCache) haveRange(ctx context.Context, symbol, start, end string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ranges WHERE symbol = ? AND start = ? AND end = ?`,
		symbol, start, end,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *SQLiteCache) load(ctx context.Context, symbol, start, end string) (market.History, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		symbol, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var h market.History
	for rows.Next() {
		var ds string
		var b market.Bar
		if err := rows.Scan(&ds, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date, err = time.Parse("2006-01-02", ds)
		if err != nil {
			return nil, err
		}
		h = append(h, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, ErrNoData
	}
	return h, nil
}

func (c *SQLiteCache) store(ctx context.Context, symbol, start, end string, h market.History) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
		(symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range h {
		if _, err := stmt.Exec(symbol, b.Date.Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO ranges (symbol, start, end) VALUES (?, ?, ?)`,
		symbol, start, end,
	); err != nil {
		return err
	}
	return tx.Commit()
}
