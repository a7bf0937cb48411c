// Package api предоставляет клиент удалённых сервисов авторизации, ресторанов и заказов.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/metrics"
	"github.com/mmeshcher/fastgo-client/internal/model"
)

const requestTimeout = 5 * time.Second

// Endpoints содержит базовые адреса удалённых сервисов.
type Endpoints struct {
	Auth string
	Shop string
}

// TokenSource возвращает текущий bearer-токен пользователя.
type TokenSource interface {
	Token() string
}

// TokenFunc позволяет использовать функцию как TokenSource.
type TokenFunc func() string

// Token реализует TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client инкапсулирует HTTP-взаимодействие с сервисами FastGo.
type Client struct {
	authURL    string
	shopURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// LoginResult описывает успешный ответ сервиса авторизации.
type LoginResult struct {
	Token string `json:"jwt"`
	Role  string `json:"role"`
}

// NewClient создаёт HTTP-клиент для обращения к сервисам по указанным адресам.
func NewClient(endpoints Endpoints, tokens TokenSource, logger *zap.Logger) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = requestTimeout

	return &Client{
		authURL:    normalizeBaseURL(endpoints.Auth),
		shopURL:    normalizeBaseURL(endpoints.Shop),
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

func normalizeBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base
}

// Login аутентифицирует пользователя. Допускаются только аккаунты с ролью USER.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload := map[string]string{"username": username, "password": password}

	resp, err := c.do(ctx, http.MethodPost, c.authURL+"/auth/login", payload, false)
	if err != nil {
		record("login", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		record("login", err)
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &RejectedError{StatusCode: resp.StatusCode, Message: serverMessage(body, "invalid credentials")}
		record("login", err)
		return nil, err
	}

	var result LoginResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			c.logger.Warn("login response is not valid json", zap.Error(err))
		}
	}

	if result.Role != model.RoleUser {
		c.logger.Info("login rejected by role", zap.String("role", result.Role))
		record("login", ErrRoleNotAllowed)
		return nil, ErrRoleNotAllowed
	}

	record("login", nil)
	return &result, nil
}

// Register регистрирует нового клиента. Созданная сущность не возвращается.
func (c *Client) Register(ctx context.Context, profile model.RegistrationProfile) error {
	if profile.Role == "" {
		profile.Role = model.RoleUser
	}

	resp, err := c.do(ctx, http.MethodPost, c.authURL+"/registration/client", profile, false)
	if err != nil {
		record("register", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("registration rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		err := &RejectedError{StatusCode: resp.StatusCode, Message: serverMessage(body, ""), Err: ErrRegistrationFailed}
		record("register", err)
		return err
	}

	record("register", nil)
	return nil
}

type nearbyRequest struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	RangeInKm string `json:"rangeInKm"`
}

// FindNearbyRestaurants ищет рестораны в радиусе radiusKm от точки.
func (c *Client) FindNearbyRestaurants(ctx context.Context, at model.Coordinates, radiusKm float64) ([]model.Restaurant, error) {
	payload := nearbyRequest{
		Latitude:  strconv.FormatFloat(at.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(at.Longitude, 'f', -1, 64),
		RangeInKm: strconv.FormatFloat(radiusKm, 'f', -1, 64),
	}

	var restaurants []model.Restaurant
	if err := c.doJSON(ctx, http.MethodPost, c.shopURL+"/restaurants/nearby", payload, false, &restaurants); err != nil {
		record("nearby", err)
		return nil, err
	}

	record("nearby", nil)
	return restaurants, nil
}

// GetMenu возвращает меню ресторана или ErrMenuNotFound.
func (c *Client) GetMenu(ctx context.Context, shopID string) (*model.Menu, error) {
	endpoint := c.shopURL + "/menu/by-shop/" + url.PathEscape(shopID)

	var menu *model.Menu
	err := c.doJSON(ctx, http.MethodGet, endpoint, nil, false, &menu)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			err = ErrMenuNotFound
		}
		record("menu", err)
		return nil, err
	}

	if menu == nil {
		record("menu", ErrMenuNotFound)
		return nil, ErrMenuNotFound
	}

	record("menu", nil)
	return menu, nil
}

// CreateOrder отправляет новый заказ от имени текущего пользователя.
func (c *Client) CreateOrder(ctx context.Context, order model.Order) error {
	resp, err := c.do(ctx, http.MethodPost, c.shopURL+"/order/create", order, true)
	if err != nil {
		record("create_order", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		err := &RejectedError{StatusCode: resp.StatusCode, Message: serverMessage(body, "")}
		record("create_order", err)
		return err
	}

	record("create_order", nil)
	return nil
}

// ListMyOrders возвращает заказы текущего пользователя, новые первыми.
func (c *Client) ListMyOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.doJSON(ctx, http.MethodGet, c.shopURL+"/order/my-orders", nil, true, &orders); err != nil {
		record("my_orders", err)
		return nil, err
	}

	SortNewestFirst(orders)

	record("my_orders", nil)
	return orders, nil
}

// SortNewestFirst сортирует заказы по дате создания по убыванию.
func SortNewestFirst(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt.Time)
	})
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, auth bool, dst any) error {
	resp, err := c.do(ctx, method, endpoint, payload, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &RejectedError{StatusCode: resp.StatusCode, Message: serverMessage(body, "")}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, auth bool) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if auth {
		token := ""
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return nil, ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote call failed",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Error(err),
		)
		return nil, networkError(err)
	}
	return resp, nil
}

func serverMessage(body []byte, fallback string) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return fallback
}

func record(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.APIRequestsTotal.WithLabelValues(operation, result).Inc()
}
