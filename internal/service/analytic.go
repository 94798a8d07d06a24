package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
	"banking-ledger/internal/repository"
)

// DefaultTopLimit — число счетов в рейтинге по умолчанию
const DefaultTopLimit = 5

// AnalyticService отвечает за сводные запросы без изменения состояния
type AnalyticService struct {
	accountRepo *repository.AccountRepository
	logger      *logrus.Logger
}

func NewAnalyticService(accountRepo *repository.AccountRepository, logger *logrus.Logger) *AnalyticService {
	return &AnalyticService{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// TotalActiveBalance возвращает сумму балансов активных счетов,
// 0 — если активных счетов нет
func (s *AnalyticService) TotalActiveBalance(ctx context.Context) (float64, error) {
	total, err := s.accountRepo.SumActiveBalances(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка расчета суммарного баланса")
		return 0, fmt.Errorf("ошибка расчета суммарного баланса: %w", err)
	}

	s.logger.WithField("total", total).Debug("Суммарный баланс рассчитан")
	return total, nil
}

// TopAccounts возвращает не более limit активных счетов по убыванию баланса.
// Неположительный limit заменяется значением по умолчанию
func (s *AnalyticService) TopAccounts(ctx context.Context, limit int) ([]model.Account, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	accounts, err := s.accountRepo.TopByBalance(ctx, limit)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения рейтинга счетов")
		return nil, fmt.Errorf("ошибка получения рейтинга: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"limit": limit,
		"count": len(accounts),
	}).Debug("Рейтинг счетов получен")
	return accounts, nil
}
