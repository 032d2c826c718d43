package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create orders",
		SQL: `
			CREATE TABLE orders (
				order_id           TEXT PRIMARY KEY,
				transaction_id     TEXT NOT NULL DEFAULT '',
				customer_name      TEXT NOT NULL DEFAULT '',
				carrier            TEXT NOT NULL DEFAULT '',
				tracking_number    TEXT NOT NULL DEFAULT '',
				shipping_date      TEXT NOT NULL DEFAULT '',
				delivery_date      TEXT NOT NULL DEFAULT '',
				delivery_status    TEXT NOT NULL DEFAULT '',
				shipping_address   TEXT NOT NULL DEFAULT '',
				signature          TEXT NOT NULL DEFAULT '',
				delivery_photo_url TEXT NOT NULL DEFAULT '',
				notes              TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_orders_transaction ON orders (transaction_id);
			CREATE INDEX idx_orders_tracking ON orders (tracking_number);
		`,
	},
	{
		Version: 2,
		Name:    "create decision audit log",
		SQL: `
			CREATE TABLE decisions (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id     TEXT NOT NULL DEFAULT '',
				transaction_id TEXT NOT NULL DEFAULT '',
				outcome        TEXT NOT NULL,
				confidence     REAL NOT NULL,
				justification  TEXT NOT NULL DEFAULT '',
				step           INTEGER NOT NULL,
				forced         INTEGER NOT NULL DEFAULT 0,
				disbursed      INTEGER NOT NULL DEFAULT 0,
				decided_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_decisions_transaction ON decisions (transaction_id);
		`,
	},
}
