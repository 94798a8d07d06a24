package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-ledger/internal/service"
)

type AnalyticsHandler struct {
	analyticService *service.AnalyticService
	logger          *logrus.Logger
}

func NewAnalyticsHandler(analyticService *service.AnalyticService, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticService: analyticService,
		logger:          logger,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/total", h.GetTotalBalance).Methods("GET")
	router.HandleFunc("/top", h.GetTopAccounts).Methods("GET")
}

// GetTotalBalance возвращает сумму балансов всех активных счетов
func (h *AnalyticsHandler) GetTotalBalance(w http.ResponseWriter, r *http.Request) {
	total, err := h.analyticService.TotalActiveBalance(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Ошибка получения суммарного баланса")
		http.Error(w, "Ошибка получения суммарного баланса", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"total_balance": total})
}

// GetTopAccounts возвращает рейтинг активных счетов по убыванию баланса
func (h *AnalyticsHandler) GetTopAccounts(w http.ResponseWriter, r *http.Request) {
	// Разбираем необязательный параметр limit
	limit := service.DefaultTopLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}

	h.logger.WithField("limit", limit).Debug("Запрос рейтинга счетов")

	accounts, err := h.analyticService.TopAccounts(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Ошибка получения рейтинга счетов")
		http.Error(w, "Ошибка получения рейтинга", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}
