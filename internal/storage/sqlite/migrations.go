package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS households (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    member_one_name TEXT NOT NULL,
    member_two_name TEXT NOT NULL,
    passcode_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    household_id TEXT NOT NULL,
    uploaded_by TEXT NOT NULL,
    expense_date TEXT NOT NULL,
    vendor TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'other',
    subtotal TEXT,
    tax TEXT,
    tip TEXT,
    total TEXT,
    items TEXT NOT NULL DEFAULT '[]',
    raw_text TEXT NOT NULL DEFAULT '',
    saved INTEGER NOT NULL DEFAULT 0,
    settled_at INTEGER,
    uploaded_at INTEGER NOT NULL,
    FOREIGN KEY (household_id) REFERENCES households(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    household_id TEXT NOT NULL,
    member_code TEXT NOT NULL,
    message TEXT NOT NULL,
    read INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (household_id) REFERENCES households(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_households_name ON households(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_receipts_household_date ON receipts(household_id, expense_date);
CREATE INDEX IF NOT EXISTS idx_receipts_household_saved ON receipts(household_id, saved);
CREATE INDEX IF NOT EXISTS idx_notifications_household_member ON notifications(household_id, member_code, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
