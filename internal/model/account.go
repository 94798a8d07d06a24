package model

// AccountType определяет тип счета
type AccountType string

const (
	AccountTypeSavings AccountType = "savings" // сберегательный счет
	AccountTypeCurrent AccountType = "current" // текущий счет
)

// Valid проверяет, что тип счета поддерживается
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

// AccountStatus определяет статус счета.
// Переход только в одну сторону: active -> inactive
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"   // активный счет
	AccountStatusInactive AccountStatus = "inactive" // деактивированный счет
)

type Account struct {
	ID      int64         `json:"id" db:"id"`
	Name    string        `json:"name" db:"name"`
	Type    AccountType   `json:"type" db:"type"`
	Balance float64       `json:"balance" db:"balance"`
	Status  AccountStatus `json:"status" db:"status"`
}

type CreateAccountRequest struct {
	Name string      `json:"name" validate:"required"`
	Type AccountType `json:"type"` // по умолчанию savings
}

type ChangeRequest struct {
	AccountID int64   `json:"account_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

type TransferRequest struct {
	FromID int64   `json:"from_id" validate:"required"`
	ToID   int64   `json:"to_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type InterestRequest struct {
	Rate float64 `json:"rate"` // по умолчанию из конфигурации
}
