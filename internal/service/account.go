package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
	"banking-ledger/internal/repository"
)

type AccountService struct {
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	logger          *logrus.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	transactionRepo *repository.TransactionRepository,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// OpenAccount открывает новый счет с нулевым балансом и статусом active
func (s *AccountService) OpenAccount(ctx context.Context, name string, accType model.AccountType) (int64, error) {
	if name == "" {
		s.logger.Warn("Попытка открытия счета без имени")
		return 0, fmt.Errorf("%w: имя не может быть пустым", ErrInvalidArgument)
	}
	if !accType.Valid() {
		s.logger.Warnf("Попытка открытия счета с неизвестным типом %q", accType)
		return 0, fmt.Errorf("%w: неизвестный тип счета %q", ErrInvalidArgument, accType)
	}

	s.logger.Infof("Открытие счета %q типа %s", name, accType)
	id, err := s.accountRepo.Create(ctx, name, accType)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка при создании счета")
		return 0, fmt.Errorf("ошибка создания счета: %w", err)
	}

	return id, nil
}

// GetAccount возвращает снимок состояния счета
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: счет %d", ErrNotFound, id)
		}
		s.logger.WithError(err).Errorf("Ошибка получения счета %d", id)
		return nil, fmt.Errorf("ошибка получения счета: %w", err)
	}
	return account, nil
}

// ListAccounts возвращает все счета
func (s *AccountService) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения списка счетов")
		return nil, fmt.Errorf("ошибка получения счетов: %w", err)
	}
	return accounts, nil
}

// SearchAccounts возвращает счета, имя которых содержит подстроку
func (s *AccountService) SearchAccounts(ctx context.Context, name string) ([]model.Account, error) {
	accounts, err := s.accountRepo.SearchByName(ctx, name)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка поиска счетов")
		return nil, fmt.Errorf("ошибка поиска счетов: %w", err)
	}
	return accounts, nil
}

// Deposit увеличивает баланс счета и записывает транзакцию deposit.
// Изменение баланса и запись журнала фиксируются одним коммитом
func (s *AccountService) Deposit(ctx context.Context, accountID int64, amount float64) error {
	if amount <= 0 {
		s.logger.Warn("Попытка пополнения на неположительную сумму")
		return fmt.Errorf("%w: сумма должна быть положительной", ErrInvalidArgument)
	}

	account, err := s.getActiveAccount(ctx, accountID)
	if err != nil {
		return err
	}

	s.logger.Infof("Инициировано пополнение счета %d на сумму %.2f", accountID, amount)

	// Начинаем транзакцию
	db := s.accountRepo.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	// Зачисление на счет
	if err := s.accountRepo.AdjustBalanceTx(ctx, tx, accountID, amount); err != nil {
		s.logger.WithError(err).Errorf("Ошибка зачисления на счет %d", accountID)
		return fmt.Errorf("ошибка пополнения счета: %w", err)
	}

	// Запись в журнал
	transaction := &model.Transaction{
		Type:      model.TransactionTypeDeposit,
		AccountID: accountID,
		Amount:    amount,
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, transaction); err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	s.logger.Infof("Успешно пополнен счет %d (%q) на сумму %.2f", accountID, account.Name, amount)
	return nil
}

// Withdraw уменьшает баланс счета и записывает транзакцию withdraw.
// Списание защищено условием достаточности остатка внутри той же транзакции
func (s *AccountService) Withdraw(ctx context.Context, accountID int64, amount float64) error {
	if amount <= 0 {
		s.logger.Warn("Попытка снятия неположительной суммы")
		return fmt.Errorf("%w: сумма должна быть положительной", ErrInvalidArgument)
	}

	account, err := s.getActiveAccount(ctx, accountID)
	if err != nil {
		return err
	}

	// Проверяем достаточность средств
	if account.Balance < amount {
		s.logger.Warnf("Недостаточно средств на счете %d: баланс %.2f, требуется %.2f",
			accountID, account.Balance, amount)
		return fmt.Errorf("%w: баланс %.2f, требуется %.2f", ErrInsufficientFunds, account.Balance, amount)
	}

	s.logger.Infof("Инициировано снятие со счета %d суммы %.2f", accountID, amount)

	// Начинаем транзакцию
	db := s.accountRepo.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	// Списание со счета с повторной проверкой остатка
	if err := s.accountRepo.DebitBalanceTx(ctx, tx, accountID, amount); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return fmt.Errorf("%w: остаток изменился во время операции", ErrInsufficientFunds)
		}
		s.logger.WithError(err).Errorf("Ошибка списания со счета %d", accountID)
		return fmt.Errorf("ошибка снятия средств: %w", err)
	}

	// Запись в журнал
	transaction := &model.Transaction{
		Type:      model.TransactionTypeWithdraw,
		AccountID: accountID,
		Amount:    amount,
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, transaction); err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return fmt.Errorf("ошибка подтверждения операции: %w", err)
	}

	s.logger.Infof("Успешно снято %.2f со счета %d (%q)", amount, accountID, account.Name)
	return nil
}

// Transfer переводит средства между счетами. Списание, зачисление и запись
// журнала фиксируются одним коммитом: либо применяется все, либо ничего.
// В журнале остается одна запись transfer с указанием счета-получателя
func (s *AccountService) Transfer(ctx context.Context, fromID, toID int64, amount float64) error {
	if amount <= 0 {
		s.logger.Warn("Попытка перевода неположительной суммы")
		return fmt.Errorf("%w: сумма должна быть положительной", ErrInvalidArgument)
	}

	from, err := s.getActiveAccount(ctx, fromID)
	if err != nil {
		return err
	}
	to, err := s.getActiveAccount(ctx, toID)
	if err != nil {
		return err
	}

	// Проверяем достаточность средств до каких-либо изменений
	if from.Balance < amount {
		s.logger.Warnf("Недостаточно средств на счете %d: баланс %.2f, требуется %.2f",
			fromID, from.Balance, amount)
		return fmt.Errorf("%w: баланс %.2f, требуется %.2f", ErrInsufficientFunds, from.Balance, amount)
	}

	s.logger.Infof("Инициирован перевод %.2f со счета %d на счет %d", amount, fromID, toID)

	// Начинаем транзакцию
	db := s.accountRepo.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	// Списание со счета отправителя с повторной проверкой остатка:
	// счета не удаляются, поэтому нулевое число строк означает
	// конкурентное списание, и весь перевод откатывается
	if err := s.accountRepo.DebitBalanceTx(ctx, tx, fromID, amount); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return fmt.Errorf("%w: остаток изменился во время операции", ErrInsufficientFunds)
		}
		s.logger.WithError(err).Errorf("Ошибка списания со счета %d", fromID)
		return fmt.Errorf("ошибка списания средств: %w", err)
	}

	// Зачисление на счет получателя
	if err := s.accountRepo.AdjustBalanceTx(ctx, tx, toID, amount); err != nil {
		s.logger.WithError(err).Errorf("Ошибка зачисления на счет %d", toID)
		return fmt.Errorf("ошибка зачисления средств: %w", err)
	}

	// Единственная запись журнала о переводе
	transaction := &model.Transaction{
		Type:            model.TransactionTypeTransfer,
		AccountID:       fromID,
		TargetAccountID: &toID,
		Amount:          amount,
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, transaction); err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return fmt.Errorf("ошибка подтверждения перевода: %w", err)
	}

	s.logger.Infof("Успешно выполнен перевод %.2f со счета %d (%q) на счет %d (%q)",
		amount, fromID, from.Name, toID, to.Name)
	return nil
}

// Deactivate переводит счет в статус inactive. Повторная деактивация
// уже неактивного счета допустима и не меняет состояние
func (s *AccountService) Deactivate(ctx context.Context, accountID int64) error {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.SetStatus(ctx, accountID, model.AccountStatusInactive); err != nil {
		s.logger.WithError(err).Errorf("Ошибка деактивации счета %d", accountID)
		return fmt.Errorf("ошибка деактивации счета: %w", err)
	}

	s.logger.Infof("Счет %d деактивирован", accountID)
	return nil
}

// Transactions возвращает журнал операций счета от новых к старым,
// включая записи, где счет выступает получателем перевода
func (s *AccountService) Transactions(
	ctx context.Context,
	accountID int64,
	filter model.TransactionFilter,
) ([]model.Transaction, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.ListByAccount(ctx, accountID, filter)
	if err != nil {
		s.logger.WithError(err).Errorf("Ошибка получения журнала счета %d", accountID)
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	return transactions, nil
}

// ApplyInterest начисляет проценты всем активным сберегательным счетам
// одним массовым обновлением. Записи журнала при этом не создаются
func (s *AccountService) ApplyInterest(ctx context.Context, rate float64) error {
	s.logger.Infof("Начисление процентов по ставке %.4f", rate)

	affected, err := s.accountRepo.ApplyInterestToSavings(ctx, rate)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начисления процентов")
		return fmt.Errorf("ошибка начисления процентов: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"rate":     rate,
		"accounts": affected,
	}).Info("Начисление процентов завершено")
	return nil
}

// getActiveAccount возвращает счет, если он существует и активен.
// Отсутствующий и неактивный счет неразличимы для денежных операций
func (s *AccountService) getActiveAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Status != model.AccountStatusActive {
		s.logger.Warnf("Попытка операции с неактивным счетом %d", id)
		return nil, fmt.Errorf("%w: счет %d неактивен", ErrNotFound, id)
	}
	return account, nil
}
