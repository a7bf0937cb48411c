// Package handler содержит HTTP-обработчики локального API клиента FastGo.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/api"
	"github.com/mmeshcher/fastgo-client/internal/middleware"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/service"
	"github.com/mmeshcher/fastgo-client/internal/session"
	"github.com/mmeshcher/fastgo-client/internal/tracker"
)

// Service определяет сценарии, используемые HTTP-обработчиками.
type Service interface {
	CurrentUser() (model.User, bool)
	RefreshOrders(ctx context.Context) error
	OpenOrder(id string) (model.Order, error)
	CloseOrder()
}

// Orders определяет чтение списка заказов, сведённого с живыми обновлениями.
type Orders interface {
	Active() []model.Order
	Delivered() []model.Order
	Failed() []model.Order
	Order(id string) (model.Order, bool)
	Connected() bool
}

// Detail определяет чтение карточки открытого заказа.
type Detail interface {
	View() (tracker.DetailView, error)
}

// Handler реализует HTTP-обработчики локального API.
type Handler struct {
	service        Service
	orders         Orders
	detail         Detail
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, orders Orders, detail Detail, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		orders:         orders,
		detail:         detail,
		logger:         logger,
		authMiddleware: auth,
	}
}

type sessionResponse struct {
	LoggedIn bool        `json:"loggedIn"`
	User     *model.User `json:"user,omitempty"`
}

// GetSession возвращает состояние сессии.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{}
	if user, ok := h.service.CurrentUser(); ok {
		resp.LoggedIn = true
		resp.User = &user
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type ordersResponse struct {
	Active    []model.Order `json:"active"`
	Delivered []model.Order `json:"delivered"`
	Failed    []model.Order `json:"failed"`
	Connected bool          `json:"connected"`
}

func (h *Handler) ordersSnapshot() ordersResponse {
	return ordersResponse{
		Active:    h.orders.Active(),
		Delivered: h.orders.Delivered(),
		Failed:    h.orders.Failed(),
		Connected: h.orders.Connected(),
	}
}

// GetOrders возвращает активные заказы и историю.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	resp := h.ordersSnapshot()
	if len(resp.Active)+len(resp.Delivered)+len(resp.Failed) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	order, ok := h.orders.Order(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// RefreshOrders загружает список заказов из сервиса заказов.
func (h *Handler) RefreshOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.RefreshOrders(r.Context()); err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession), errors.Is(err, api.ErrUnauthenticated):
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		default:
			h.logger.Error("refresh orders error", zap.Error(err), zap.String("user", user.ID))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, h.ordersSnapshot())
}

// OpenDetail открывает карточку заказа и возвращает её снимок.
func (h *Handler) OpenDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if _, err := h.service.OpenOrder(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("open detail error", zap.Error(err), zap.String("user", user.ID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.GetDetail(w, r)
}

// GetDetail возвращает снимок открытой карточки заказа.
func (h *Handler) GetDetail(w http.ResponseWriter, r *http.Request) {
	view, err := h.detail.View()
	if err != nil {
		if errors.Is(err, tracker.ErrDetailClosed) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("detail view error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// CloseDetail закрывает карточку заказа и её соединение с брокером.
func (h *Handler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	h.service.CloseOrder()
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Connected bool `json:"connected"`
	Active    int  `json:"active"`
}

// GetStatus возвращает индикатор соединения с брокером.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{
		Connected: h.orders.Connected(),
		Active:    len(h.orders.Active()),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}
