package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DDL для sqlite3: целочисленные автоинкрементные идентификаторы,
// timestamp проставляется самим хранилищем
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS accounts (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	type    TEXT NOT NULL DEFAULT 'savings',
	balance REAL NOT NULL DEFAULT 0,
	status  TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS transactions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	type              TEXT NOT NULL,
	account_id        INTEGER NOT NULL,
	target_account_id INTEGER,
	amount            REAL NOT NULL,
	timestamp         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_target ON transactions (target_account_id);
`

// DDL для postgres, схема эквивалентна sqlite-варианту
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS accounts (
	id      BIGSERIAL PRIMARY KEY,
	name    TEXT NOT NULL,
	type    TEXT NOT NULL DEFAULT 'savings',
	balance DOUBLE PRECISION NOT NULL DEFAULT 0,
	status  TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS transactions (
	id                BIGSERIAL PRIMARY KEY,
	type              TEXT NOT NULL,
	account_id        BIGINT NOT NULL,
	target_account_id BIGINT,
	amount            DOUBLE PRECISION NOT NULL,
	timestamp         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_target ON transactions (target_account_id);
`

// InitSchema создает таблицы счетов и транзакций, если их еще нет
func InitSchema(ctx context.Context, db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case "sqlite3":
		schema = schemaSQLite
	case "postgres":
		schema = schemaPostgres
	default:
		return fmt.Errorf("неизвестный драйвер базы данных: %s", driver)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ошибка создания схемы: %w", err)
	}
	return nil
}
