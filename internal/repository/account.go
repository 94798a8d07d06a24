package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
)

// ErrNotUpdated возвращается, когда условный UPDATE не затронул ни одной строки.
// Для защищенного списания это означает нехватку средств на момент применения.
var ErrNotUpdated = errors.New("строка не была обновлена")

type AccountRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAccountRepository(db *sql.DB, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

// Create вставляет новый счет с нулевым балансом и статусом active,
// возвращает присвоенный идентификатор
func (r *AccountRepository) Create(ctx context.Context, name string, accType model.AccountType) (int64, error) {
	query := `
		INSERT INTO accounts (name, type, balance, status)
		VALUES ($1, $2, 0, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, name, accType, model.AccountStatusActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"account_id": id,
		"name":       name,
		"type":       accType,
	}).Info("Создан новый счет")
	return id, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `
        SELECT id, name, type, balance, status
        FROM accounts
        WHERE id = $1
    `

	var account model.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Type,
		&account.Balance,
		&account.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("счет %d: %w", id, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// List возвращает все счета в порядке создания
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT id, name, type, balance, status
		FROM accounts
		ORDER BY id
	`

	return r.queryAccounts(ctx, query)
}

// SearchByName возвращает счета, имя которых содержит подстроку
// (регистрозависимый поиск, как LIKE '%name%')
func (r *AccountRepository) SearchByName(ctx context.Context, name string) ([]model.Account, error) {
	query := `
		SELECT id, name, type, balance, status
		FROM accounts
		WHERE name LIKE '%' || $1 || '%'
		ORDER BY id
	`

	return r.queryAccounts(ctx, query, name)
}

// AdjustBalanceTx изменяет баланс счета на delta (может быть отрицательной)
// в рамках переданной транзакции. Достаточность средств здесь не проверяется
func (r *AccountRepository) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, id int64, delta float64) error {
	query := `
        UPDATE accounts
        SET balance = balance + $1
        WHERE id = $2
    `

	result, err := tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("счет %d: %w", id, ErrNotUpdated)
	}

	return nil
}

// DebitBalanceTx списывает amount со счета только при достаточном остатке.
// Повторная проверка внутри транзакции: если условие не выполнено,
// возвращается ErrNotUpdated и вся операция откатывается вызывающей стороной
func (r *AccountRepository) DebitBalanceTx(ctx context.Context, tx *sql.Tx, id int64, amount float64) error {
	query := `
        UPDATE accounts
        SET balance = balance - $1
        WHERE id = $2 AND balance >= $1
    `

	result, err := tx.ExecContext(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("счет %d: %w", id, ErrNotUpdated)
	}

	return nil
}

// SetStatus устанавливает статус счета
func (r *AccountRepository) SetStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $1
		WHERE id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("failed to set account status: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"account_id": id,
		"status":     status,
	}).Info("Статус счета изменен")
	return nil
}

// SumActiveBalances возвращает сумму балансов всех активных счетов
func (r *AccountRepository) SumActiveBalances(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(balance), 0)
		FROM accounts
		WHERE status = $1
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, model.AccountStatusActive).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}

	return total, nil
}

// TopByBalance возвращает активные счета, упорядоченные по убыванию баланса.
// При равных балансах сохраняется порядок создания
func (r *AccountRepository) TopByBalance(ctx context.Context, limit int) ([]model.Account, error) {
	query := `
		SELECT id, name, type, balance, status
		FROM accounts
		WHERE status = $1
		ORDER BY balance DESC, id
		LIMIT $2
	`

	return r.queryAccounts(ctx, query, model.AccountStatusActive, limit)
}

// ApplyInterestToSavings начисляет проценты всем активным сберегательным
// счетам одним массовым обновлением, возвращает число затронутых счетов
func (r *AccountRepository) ApplyInterestToSavings(ctx context.Context, rate float64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + (balance * $1)
		WHERE type = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, rate, model.AccountTypeSavings, model.AccountStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to apply interest: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"rate":     rate,
		"accounts": affected,
	}).Info("Проценты начислены сберегательным счетам")
	return affected, nil
}

// GetDB возвращает соединение с базой: транзакционные границы
// денежных операций задает сервисный слой
func (r *AccountRepository) GetDB() *sql.DB {
	return r.db
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Type,
			&account.Balance,
			&account.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
