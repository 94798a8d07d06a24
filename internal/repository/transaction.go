package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewTransactionRepository(db *sql.DB, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

// CreateTx добавляет запись журнала в рамках переданной транзакции.
// Идентификатор и отметку времени присваивает хранилище,
// после вставки они записываются обратно в структуру
func (r *TransactionRepository) CreateTx(ctx context.Context, tx *sql.Tx, transaction *model.Transaction) error {
	r.logger.WithFields(logrus.Fields{
		"account_id":        transaction.AccountID,
		"target_account_id": transaction.TargetAccountID,
		"amount":            transaction.Amount,
		"type":              transaction.Type,
	}).Info("Создание новой транзакции")

	query := `
        INSERT INTO transactions (type, account_id, target_account_id, amount)
        VALUES ($1, $2, $3, $4)
        RETURNING id, timestamp
    `

	var target sql.NullInt64
	if transaction.TargetAccountID != nil {
		target = sql.NullInt64{Int64: *transaction.TargetAccountID, Valid: true}
	}

	err := tx.QueryRowContext(
		ctx,
		query,
		transaction.Type,
		transaction.AccountID,
		target,
		transaction.Amount,
	).Scan(&transaction.ID, &transaction.Timestamp)

	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании транзакции")
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.logger.WithField("transaction_id", transaction.ID).Info("Транзакция успешно создана")
	return nil
}

// ListByAccount возвращает записи журнала, где счет фигурирует как источник
// или получатель, с необязательным фильтром по типу. Порядок — от новых
// к старым; при равных отметках времени позже вставленные идут первыми
func (r *TransactionRepository) ListByAccount(
	ctx context.Context,
	accountID int64,
	filter model.TransactionFilter,
) ([]model.Transaction, error) {
	query := `SELECT id, type, account_id, target_account_id, amount, timestamp
	          FROM transactions
	          WHERE (account_id = $1 OR target_account_id = $1)`
	args := []interface{}{accountID}

	if txnType, ok := filter.Type(); ok {
		query += ` AND type = $2`
		args = append(args, txnType)
	}
	query += ` ORDER BY timestamp DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"error":      err.Error(),
			"account_id": accountID,
		}).Error("Ошибка запроса транзакций")
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var target sql.NullInt64
		if err := rows.Scan(
			&tx.ID,
			&tx.Type,
			&tx.AccountID,
			&target,
			&tx.Amount,
			&tx.Timestamp,
		); err != nil {
			r.logger.WithError(err).Error("Ошибка чтения строки транзакции")
			return nil, fmt.Errorf("ошибка чтения транзакции: %w", err)
		}
		if target.Valid {
			tx.TargetAccountID = &target.Int64
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithError(err).Error("Ошибка при обработке результатов")
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	r.logger.WithField("count", len(transactions)).Debug("Транзакции успешно получены")
	return transactions, nil
}
