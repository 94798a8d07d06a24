package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-ledger/internal/model"
	"banking-ledger/internal/service"
)

// AccountHandler обрабатывает запросы, связанные со счетами
type AccountHandler struct {
	accountService *service.AccountService // Сервис для работы со счетами
	interestRate   float64                 // Ставка процентов по умолчанию
	logger         *logrus.Logger          // Логгер
}

// NewAccountHandler создает новый AccountHandler
func NewAccountHandler(accountService *service.AccountService, interestRate float64, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		interestRate:   interestRate,
		logger:         logger,
	}
}

// RegisterRoutes регистрирует маршруты для работы со счетами
func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.OpenAccount).Methods("POST")
	router.HandleFunc("", h.ListAccounts).Methods("GET")
	router.HandleFunc("/search/{name}", h.SearchAccounts).Methods("GET")
	router.HandleFunc("/{id:[0-9]+}", h.GetBalance).Methods("GET")
	router.HandleFunc("/{id:[0-9]+}/deactivate", h.Deactivate).Methods("PUT")
	router.HandleFunc("/{id:[0-9]+}/transactions", h.ListTransactions).Methods("GET")
}

// RegisterOperationRoutes регистрирует маршруты денежных операций:
// пополнение, снятие, перевод и начисление процентов
func (h *AccountHandler) RegisterOperationRoutes(router *mux.Router) {
	router.HandleFunc("/deposit", h.Deposit).Methods("POST")
	router.HandleFunc("/withdraw", h.Withdraw).Methods("POST")
	router.HandleFunc("/transfer", h.Transfer).Methods("POST")
	router.HandleFunc("/interest", h.ApplyInterest).Methods("POST")
}

// OpenAccount обрабатывает запрос на открытие нового счета
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	// Декодируем входные данные
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на открытие счета")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	// Тип по умолчанию — сберегательный счет
	if req.Type == "" {
		req.Type = model.AccountTypeSavings
	}

	// Открываем счет
	id, err := h.accountService.OpenAccount(r.Context(), req.Name, req.Type)
	if err != nil {
		h.writeError(w, err, "Не удалось открыть счет")
		return
	}

	// Формируем ответ
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"account_id": id,
		"message":    fmt.Sprintf("Счет %q открыт с идентификатором %d", req.Name, id),
	})
}

// ListAccounts обрабатывает запрос на получение списка всех счетов
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, err, "Не удалось получить список счетов")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// SearchAccounts обрабатывает запрос на поиск счетов по подстроке имени
func (h *AccountHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	accounts, err := h.accountService.SearchAccounts(r.Context(), name)
	if err != nil {
		h.writeError(w, err, "Не удалось выполнить поиск счетов")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// GetBalance обрабатывает запрос на получение состояния счета
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор счета", http.StatusBadRequest)
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Не удалось получить счет")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Deposit обрабатывает запрос на пополнение счета
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeRequest
	// Декодируем входные данные
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на пополнение")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	// Выполняем пополнение счета
	if err := h.accountService.Deposit(r.Context(), req.AccountID, req.Amount); err != nil {
		h.writeError(w, err, "Не удалось пополнить счет")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Счет %d пополнен на %.2f", req.AccountID, req.Amount),
	})
}

// Withdraw обрабатывает запрос на снятие средств
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeRequest
	// Декодируем входные данные
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на снятие")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	// Выполняем снятие средств
	if err := h.accountService.Withdraw(r.Context(), req.AccountID, req.Amount); err != nil {
		h.writeError(w, err, "Не удалось снять средства")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Со счета %d снято %.2f", req.AccountID, req.Amount),
	})
}

// Transfer обрабатывает запрос на перевод средств
func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	// Декодируем входные данные
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на перевод")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	// Выполняем перевод средств
	if err := h.accountService.Transfer(r.Context(), req.FromID, req.ToID, req.Amount); err != nil {
		h.writeError(w, err, "Не удалось выполнить перевод")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Перевод %.2f со счета %d на счет %d выполнен", req.Amount, req.FromID, req.ToID),
	})
}

// Deactivate обрабатывает запрос на деактивацию счета
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор счета", http.StatusBadRequest)
		return
	}

	if err := h.accountService.Deactivate(r.Context(), id); err != nil {
		h.writeError(w, err, "Не удалось деактивировать счет")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Счет %d деактивирован", id),
	})
}

// ListTransactions обрабатывает запрос журнала операций счета.
// Необязательный параметр type сужает выборку до одного типа операций
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "Неверный идентификатор счета", http.StatusBadRequest)
		return
	}

	// Разбираем необязательный фильтр по типу
	filter := model.AllTransactions()
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		txnType := model.TransactionType(typeParam)
		if !txnType.Valid() {
			http.Error(w, "Неизвестный тип транзакции", http.StatusBadRequest)
			return
		}
		filter = model.TransactionsOfType(txnType)
	}

	transactions, err := h.accountService.Transactions(r.Context(), id, filter)
	if err != nil {
		h.writeError(w, err, "Не удалось получить журнал операций")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

// ApplyInterest обрабатывает запрос на начисление процентов.
// Тело запроса необязательно, без него используется ставка по умолчанию
func (h *AccountHandler) ApplyInterest(w http.ResponseWriter, r *http.Request) {
	req := model.InterestRequest{Rate: h.interestRate}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.WithError(err).Error("Не удалось декодировать запрос на начисление процентов")
			http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
			return
		}
	}

	if err := h.accountService.ApplyInterest(r.Context(), req.Rate); err != nil {
		h.writeError(w, err, "Не удалось начислить проценты")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Проценты по ставке %.2f%% начислены сберегательным счетам", req.Rate*100),
	})
}

// writeError преобразует доменную ошибку в HTTP статус-код
func (h *AccountHandler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		h.logger.WithError(err).Warn(logMsg)
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		h.logger.WithError(err).Warn(logMsg)
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInsufficientFunds):
		h.logger.WithError(err).Warn(logMsg)
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		// Ошибка хранилища или иная внутренняя ошибка
		h.logger.WithError(err).Error(logMsg)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}

// parseID извлекает идентификатор счета из пути запроса
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// writeJSON сериализует ответ в JSON
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
