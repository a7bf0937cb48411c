// Package service реализует сценарии клиента FastGo поверх API, сессии и трекера заказов.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/api"
	"github.com/mmeshcher/fastgo-client/internal/cart"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/ordering"
	"github.com/mmeshcher/fastgo-client/internal/session"
	"github.com/mmeshcher/fastgo-client/internal/validation"
)

var (
	// ErrEmptyCart возвращается при попытке оформить пустую корзину.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound возвращается, если заказа нет в текущем списке.
	ErrOrderNotFound = errors.New("order not found")
)

// API описывает удалённые сервисы, используемые клиентом.
type API interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	Register(ctx context.Context, profile model.RegistrationProfile) error
	FindNearbyRestaurants(ctx context.Context, at model.Coordinates, radiusKm float64) ([]model.Restaurant, error)
	GetMenu(ctx context.Context, shopID string) (*model.Menu, error)
	CreateOrder(ctx context.Context, order model.Order) error
	ListMyOrders(ctx context.Context) ([]model.Order, error)
}

// Session описывает хранилище сессии пользователя.
type Session interface {
	Login(token, role string) error
	Logout() error
	User() (model.User, bool)
}

// OrderBook описывает список заказов, сводимый с живыми обновлениями.
type OrderBook interface {
	SetOrders(orders []model.Order)
	Order(id string) (model.Order, bool)
}

// DetailView описывает карточку открытого заказа.
type DetailView interface {
	Open(order model.Order)
	Close()
}

// Service содержит сценарии клиента FastGo.
type Service struct {
	api       API
	session   Session
	placement *ordering.Placement
	orders    OrderBook
	detail    DetailView
	logger    *zap.Logger
	radiusKm  float64
	now       func() time.Time
}

// Options собирает зависимости сервиса.
type Options struct {
	API       API
	Session   Session
	Placement *ordering.Placement
	Orders    OrderBook
	Detail    DetailView
	Logger    *zap.Logger
	// RadiusKm задаёт радиус поиска ресторанов поблизости.
	RadiusKm float64
}

// NewService создаёт сервис с указанными зависимостями.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:       opts.API,
		session:   opts.Session,
		placement: opts.Placement,
		orders:    opts.Orders,
		detail:    opts.Detail,
		logger:    logger,
		radiusKm:  opts.RadiusKm,
		now:       time.Now,
	}
}

// Login аутентифицирует пользователя и сохраняет сессию. Аккаунты с ролью, отличной от клиента, не сохраняются.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, error) {
	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", username), zap.Error(err))
		return model.User{}, err
	}

	if err := s.session.Login(res.Token, res.Role); err != nil {
		return model.User{}, fmt.Errorf("store session: %w", err)
	}

	user, _ := s.session.User()
	s.logger.Info("user logged in", zap.String("user", user.ID))
	return user, nil
}

// Logout завершает сессию и очищает список заказов.
func (s *Service) Logout() error {
	if s.detail != nil {
		s.detail.Close()
	}
	if s.orders != nil {
		s.orders.SetOrders(nil)
	}
	return s.session.Logout()
}

// CurrentUser возвращает пользователя текущей сессии.
func (s *Service) CurrentUser() (model.User, bool) {
	return s.session.User()
}

// Register проверяет профиль и регистрирует нового клиента.
func (s *Service) Register(ctx context.Context, profile model.RegistrationProfile) error {
	if err := validation.ValidateRegistration(profile); err != nil {
		return err
	}
	profile.Role = model.RoleUser

	if err := s.api.Register(ctx, profile); err != nil {
		s.logger.Warn("registration failed", zap.String("username", profile.Username), zap.Error(err))
		return err
	}
	return nil
}

// NearbyRestaurants возвращает рестораны вокруг точки. При сбое возвращается пустой список.
func (s *Service) NearbyRestaurants(ctx context.Context, at model.Coordinates) []model.Restaurant {
	restaurants, err := s.api.FindNearbyRestaurants(ctx, at, s.radiusKm)
	if err != nil {
		s.logger.Warn("nearby search failed", zap.Error(err))
		return []model.Restaurant{}
	}
	return restaurants
}

// Menu возвращает блюда ресторана. Отсутствующее меню и сбои дают пустой список.
func (s *Service) Menu(ctx context.Context, shopID string) []model.MenuItem {
	menu, err := s.api.GetMenu(ctx, shopID)
	if err != nil {
		if !errors.Is(err, api.ErrMenuNotFound) {
			s.logger.Warn("menu request failed", zap.String("shop", shopID), zap.Error(err))
		}
		return []model.MenuItem{}
	}
	if menu.Items == nil {
		return []model.MenuItem{}
	}
	return menu.Items
}

// SuggestAddress предлагает адрес доставки по точке на карте.
func (s *Service) SuggestAddress(ctx context.Context, pinned model.Coordinates) (ordering.Address, error) {
	return s.placement.Autofill(ctx, pinned)
}

// PlaceOrderRequest описывает оформление заказа.
type PlaceOrderRequest struct {
	Restaurant model.Restaurant
	Pinned     model.Coordinates
	Address    ordering.Address
	Cart       *cart.Cart
	// Confirm подтверждает отправку, если адрес далеко или не найден на карте.
	Confirm bool
}

// PlaceOrderResult описывает итог оформления.
type PlaceOrderResult struct {
	Check     ordering.Result `json:"check"`
	Submitted bool            `json:"submitted"`
	Order     *model.Order    `json:"order,omitempty"`
}

// PlaceOrder проверяет адрес и отправляет заказ. Без подтверждения сомнительный адрес не отправляется.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	user, ok := s.session.User()
	if !ok {
		return PlaceOrderResult{}, session.ErrNoSession
	}
	if req.Cart == nil || req.Cart.Len() == 0 {
		return PlaceOrderResult{}, ErrEmptyCart
	}

	check, err := s.placement.Check(ctx, req.Pinned, req.Address)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	result := PlaceOrderResult{Check: check}
	if check.NeedsConfirmation() && !req.Confirm {
		s.logger.Info("order awaits confirmation",
			zap.Stringer("verdict", check.Verdict),
			zap.Float64("distance_km", check.DistanceKm),
		)
		return result, nil
	}

	order := ordering.BuildOrder(user, req.Restaurant, req.Address, req.Cart, s.now())
	if err := s.api.CreateOrder(ctx, order); err != nil {
		s.logger.Error("failed to create order", zap.String("shop", order.ShopID), zap.Error(err))
		return result, err
	}

	req.Cart.Reset()
	result.Submitted = true
	result.Order = &order
	s.logger.Info("order submitted", zap.String("shop", order.ShopID), zap.Float64("total", order.TotalPrice))

	if err := s.RefreshOrders(ctx); err != nil {
		s.logger.Debug("orders refresh after submit failed", zap.Error(err))
	}
	return result, nil
}

// RefreshOrders загружает список заказов и передаёт его трекеру. При сбое остаются прежние данные.
func (s *Service) RefreshOrders(ctx context.Context) error {
	if _, ok := s.session.User(); !ok {
		return session.ErrNoSession
	}

	orders, err := s.api.ListMyOrders(ctx)
	if err != nil {
		s.logger.Warn("failed to load orders", zap.Error(err))
		return err
	}

	s.orders.SetOrders(orders)
	return nil
}

// OpenOrder открывает карточку заказа из текущего списка.
func (s *Service) OpenOrder(id string) (model.Order, error) {
	order, ok := s.orders.Order(id)
	if !ok {
		return model.Order{}, ErrOrderNotFound
	}
	if s.detail != nil {
		s.detail.Open(order)
	}
	return order, nil
}

// CloseOrder закрывает карточку заказа.
func (s *Service) CloseOrder() {
	if s.detail != nil {
		s.detail.Close()
	}
}

// StartOrderUpdates запускает фоновое обновление списка заказов с указанным интервалом.
func (s *Service) StartOrderUpdates(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		s.refreshIfLoggedIn(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshIfLoggedIn(ctx)
			}
		}
	}()
}

func (s *Service) refreshIfLoggedIn(ctx context.Context) {
	if _, ok := s.session.User(); !ok {
		return
	}
	_ = s.RefreshOrders(ctx)
}
