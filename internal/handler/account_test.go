package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
	"banking-ledger/internal/repository"
	"banking-ledger/internal/service"
)

// newTestRouter собирает полный HTTP-стек над одноразовой sqlite-базой,
// повторяя маршрутизацию cmd/server
func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bank.db") + "?_txlock=immediate&_busy_timeout=5000&_case_sensitive_like=true"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repository.InitSchema(context.Background(), db, "sqlite3"); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	accountService := service.NewAccountService(accountRepo, transactionRepo, logger)
	analyticService := service.NewAnalyticService(accountRepo, logger)

	accountHandler := NewAccountHandler(accountService, 0.02, logger)
	analyticsHandler := NewAnalyticsHandler(analyticService, logger)

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	accountHandler.RegisterRoutes(router.PathPrefix("/accounts").Subrouter())
	accountHandler.RegisterOperationRoutes(router)
	analyticsHandler.RegisterRoutes(router.PathPrefix("/analytics").Subrouter())
	return router
}

// do выполняет запрос к тестовому маршрутизатору
func do(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestOpenAccountEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d want=201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccountID int64  `json:"account_id"`
		Message   string `json:"message"`
	}
	decodeJSON(t, rec, &resp)
	if resp.AccountID != 1 || resp.Message == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Тип по умолчанию — savings
	rec = do(t, router, "GET", "/accounts/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var acc model.Account
	decodeJSON(t, rec, &acc)
	if acc.Type != model.AccountTypeSavings || acc.Status != model.AccountStatusActive {
		t.Fatalf("unexpected account: %+v", acc)
	}

	// Неизвестный тип счета
	rec = do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Bob", Type: "checking"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
}

func TestBalanceNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, "GET", "/accounts/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rec.Code)
	}
}

func TestMoneyOperationEndpoints(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Bob", Type: model.AccountTypeCurrent})

	// Пополнение
	rec := do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status=%d want=200: %s", rec.Code, rec.Body.String())
	}

	// Пополнение несуществующего счета
	rec = do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 99, Amount: 10})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deposit status=%d want=404", rec.Code)
	}

	// Неположительная сумма
	rec = do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: -5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("deposit status=%d want=400", rec.Code)
	}

	// Снятие сверх остатка
	rec = do(t, router, "POST", "/withdraw", model.ChangeRequest{AccountID: 1, Amount: 1000})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("withdraw status=%d want=400", rec.Code)
	}

	// Перевод
	rec = do(t, router, "POST", "/transfer", model.TransferRequest{FromID: 1, ToID: 2, Amount: 40})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer status=%d want=200: %s", rec.Code, rec.Body.String())
	}

	var acc model.Account
	rec = do(t, router, "GET", "/accounts/2", nil)
	decodeJSON(t, rec, &acc)
	if acc.Balance != 40 {
		t.Fatalf("bob balance=%.2f want=40", acc.Balance)
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: 100})
	do(t, router, "POST", "/withdraw", model.ChangeRequest{AccountID: 1, Amount: 30})

	rec := do(t, router, "GET", "/accounts/1/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var resp struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Transactions) != 2 {
		t.Fatalf("transactions=%d want=2", len(resp.Transactions))
	}

	// Фильтр по типу
	rec = do(t, router, "GET", "/accounts/1/transactions?type=withdraw", nil)
	decodeJSON(t, rec, &resp)
	if len(resp.Transactions) != 1 || resp.Transactions[0].Type != model.TransactionTypeWithdraw {
		t.Fatalf("filtered transactions unexpected: %+v", resp.Transactions)
	}

	// Неизвестный тип фильтра
	rec = do(t, router, "GET", "/accounts/1/transactions?type=refund", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}

	// Журнал несуществующего счета
	rec = do(t, router, "GET", "/accounts/9/transactions", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rec.Code)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Bob"})
	do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: 100})
	do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 2, Amount: 60})

	// Суммарный баланс активных счетов
	rec := do(t, router, "GET", "/analytics/total", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var totalResp struct {
		TotalBalance float64 `json:"total_balance"`
	}
	decodeJSON(t, rec, &totalResp)
	if totalResp.TotalBalance != 160 {
		t.Fatalf("total=%.2f want=160", totalResp.TotalBalance)
	}

	// Рейтинг по убыванию баланса
	rec = do(t, router, "GET", "/analytics/top?limit=1", nil)
	var topResp struct {
		Accounts []model.Account `json:"accounts"`
	}
	decodeJSON(t, rec, &topResp)
	if len(topResp.Accounts) != 1 || topResp.Accounts[0].ID != 1 {
		t.Fatalf("unexpected top: %+v", topResp.Accounts)
	}
}

func TestDeactivateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})

	rec := do(t, router, "PUT", "/accounts/1/deactivate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}

	// Повторная деактивация тоже успешна
	rec = do(t, router, "PUT", "/accounts/1/deactivate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status=%d want=200", rec.Code)
	}

	// Денежные операции по неактивному счету отклоняются
	rec = do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: 10})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deposit status=%d want=404", rec.Code)
	}

	rec = do(t, router, "PUT", "/accounts/9/deactivate", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rec.Code)
	}
}

func TestInterestEndpoint(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	do(t, router, "POST", "/deposit", model.ChangeRequest{AccountID: 1, Amount: 100})

	// Без тела применяется ставка по умолчанию (0.02)
	rec := do(t, router, "POST", "/interest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200: %s", rec.Code, rec.Body.String())
	}

	var acc model.Account
	rec = do(t, router, "GET", "/accounts/1", nil)
	decodeJSON(t, rec, &acc)
	if acc.Balance < 101.99 || acc.Balance > 102.01 {
		t.Fatalf("balance=%.4f want≈102", acc.Balance)
	}

	// Явная ставка в теле запроса
	rec = do(t, router, "POST", "/interest", model.InterestRequest{Rate: 0.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	rec = do(t, router, "GET", "/accounts/1", nil)
	decodeJSON(t, rec, &acc)
	if acc.Balance < 152.9 || acc.Balance > 153.1 {
		t.Fatalf("balance=%.4f want≈153", acc.Balance)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alice"})
	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Alicia"})
	do(t, router, "POST", "/accounts", model.CreateAccountRequest{Name: "Bob"})

	rec := do(t, router, "GET", "/accounts/search/Ali", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var resp struct {
		Accounts []model.Account `json:"accounts"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Accounts) != 2 {
		t.Fatalf("found=%d want=2", len(resp.Accounts))
	}

	// Список всех счетов
	rec = do(t, router, "GET", "/accounts", nil)
	decodeJSON(t, rec, &resp)
	if len(resp.Accounts) != 3 {
		t.Fatalf("all=%d want=3", len(resp.Accounts))
	}
}
