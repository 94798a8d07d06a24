package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config содержит настройки приложения
type Config struct {
	HTTPAddr string // Адрес HTTP сервера

	DBDriver   string // Драйвер базы данных: sqlite3 или postgres
	DBPath     string // Путь к файлу базы (sqlite3)
	DBHost     string // Хост базы данных (postgres)
	DBPort     string // Порт базы данных (postgres)
	DBUser     string // Пользователь базы данных (postgres)
	DBPassword string // Пароль базы данных (postgres)
	DBName     string // Имя базы данных (postgres)

	InterestRate     float64 // Ставка начисления процентов по умолчанию
	InterestSchedule string  // Cron-выражение для автоначисления, пусто = отключено
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Файл .env не найден")
	}

	// Парсим ставку процентов
	rate, err := strconv.ParseFloat(os.Getenv("INTEREST_RATE"), 64)
	if err != nil {
		rate = 0.02 // По умолчанию 2%
	}

	// Создаем объект конфигурации
	config := &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DBDriver:         getEnv("DB_DRIVER", "sqlite3"),
		DBPath:           getEnv("DB_PATH", "bank.db"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "bank"),
		InterestRate:     rate,
		InterestSchedule: os.Getenv("INTEREST_SCHEDULE"),
	}

	return config, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
