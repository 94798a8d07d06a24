package model

import "time"

type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"  // пополнение счета
	TransactionTypeWithdraw TransactionType = "withdraw" // снятие средств
	TransactionTypeTransfer TransactionType = "transfer" // перевод между счетами
)

// Valid проверяет, что тип транзакции поддерживается
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction — неизменяемая запись журнала операций.
// Сумма хранится как положительная величина, знак определяется типом.
// TargetAccountID заполняется только для переводов.
type Transaction struct {
	ID              int64           `json:"id" db:"id"`
	Type            TransactionType `json:"type" db:"type"`
	AccountID       int64           `json:"account_id" db:"account_id"`
	TargetAccountID *int64          `json:"target_account_id,omitempty" db:"target_account_id"`
	Amount          float64         `json:"amount" db:"amount"`
	Timestamp       time.Time       `json:"timestamp" db:"timestamp"`
}

// TransactionFilter задает выборку журнала: либо все записи,
// либо только записи одного типа. Оба пути явные, без nullable-полей.
type TransactionFilter struct {
	txnType TransactionType
	byType  bool
}

// AllTransactions — выборка без фильтра по типу
func AllTransactions() TransactionFilter {
	return TransactionFilter{}
}

// TransactionsOfType — выборка только записей указанного типа
func TransactionsOfType(t TransactionType) TransactionFilter {
	return TransactionFilter{txnType: t, byType: true}
}

// Type возвращает тип фильтра и признак его наличия
func (f TransactionFilter) Type() (TransactionType, bool) {
	return f.txnType, f.byType
}
