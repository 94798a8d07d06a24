package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"banking-ledger/internal/config"
	"banking-ledger/internal/handler"
	"banking-ledger/internal/repository"
	"banking-ledger/internal/service"
)

func main() {
	logger := logrus.New()
	// Уровень логирования (Debug для разработки, Info для продакшена)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключение к хранилищу: sqlite3 по умолчанию, postgres по конфигурации
	db, err := sql.Open(cfg.DBDriver, buildDSN(cfg))
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Проверка соединения с БД
	if err := db.Ping(); err != nil {
		logger.Fatalf("Ошибка проверки соединения с БД: %v", err)
	}

	// Создание схемы, если таблиц еще нет
	if err := repository.InitSchema(context.Background(), db, cfg.DBDriver); err != nil {
		logger.Fatalf("Ошибка инициализации схемы: %v", err)
	}

	// Инициализация репозиториев
	logger.Info("Инициализация репозиториев...")
	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)

	// Инициализация сервисов
	logger.Info("Инициализация сервисов...")
	accountService := service.NewAccountService(accountRepo, transactionRepo, logger)
	analyticService := service.NewAnalyticService(accountRepo, logger)

	// Инициализация HTTP обработчиков
	logger.Info("Инициализация обработчиков API...")
	accountHandler := handler.NewAccountHandler(accountService, cfg.InterestRate, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticService, logger)

	// Настройка маршрутизатора
	router := mux.NewRouter()
	router.Use(handler.RequestIDMiddleware)
	router.Use(handler.LoggingMiddleware(logger))

	// Маршруты для работы со счетами
	accountRouter := router.PathPrefix("/accounts").Subrouter()
	accountHandler.RegisterRoutes(accountRouter)

	// Денежные операции: пополнение, снятие, перевод, проценты
	accountHandler.RegisterOperationRoutes(router)

	// Сводные запросы
	analyticsRouter := router.PathPrefix("/analytics").Subrouter()
	analyticsHandler.RegisterRoutes(analyticsRouter)

	// Настройка планировщика для автоматического начисления процентов
	if cfg.InterestSchedule != "" {
		logger.Info("Настройка планировщика начисления процентов...")
		c := cron.New()
		_, err = c.AddFunc(cfg.InterestSchedule, func() {
			logger.Info("Запуск автоматического начисления процентов")
			if err := accountService.ApplyInterest(context.Background(), cfg.InterestRate); err != nil {
				logger.WithError(err).Error("Ошибка начисления процентов")
			} else {
				logger.Info("Автоматическое начисление процентов завершено успешно")
			}
		})
		if err != nil {
			logger.Fatalf("Ошибка настройки планировщика: %v", err)
		}
		c.Start()
		defer c.Stop()
	}

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("Запуск сервера на %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание сигналов для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Завершение работы сервера...")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Ошибка при завершении работы сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")
}

// buildDSN формирует строку подключения для выбранного драйвера.
// Для sqlite3 запись ведется в режиме _txlock=immediate, чтобы конкурентные
// денежные операции сериализовались на уровне хранилища; LIKE переводится
// в регистрозависимый режим, как в postgres
func buildDSN(cfg *config.Config) string {
	if cfg.DBDriver == "sqlite3" {
		return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_case_sensitive_like=true", cfg.DBPath)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
}
