// Package ordering проверяет адрес доставки и собирает заказ для отправки в сервис заказов.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/cart"
	"github.com/mmeshcher/fastgo-client/internal/geo"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/validation"
)

// DefaultMaxDistanceKm задаёт допустимое расстояние между точкой на карте и адресом доставки.
const DefaultMaxDistanceKm = 5.0

const fallbackZipCode = "00000"

// ErrDiscarded возвращается, если результат пришёл после отмены вызывающего контекста.
var ErrDiscarded = errors.New("result discarded: caller is gone")

// Geocoder выполняет прямое и обратное геокодирование.
type Geocoder interface {
	Search(ctx context.Context, query string) (model.Coordinates, error)
	Reverse(ctx context.Context, at model.Coordinates) (geo.ResolvedAddress, error)
}

// Verdict описывает решение проверки адреса.
type Verdict int

const (
	// VerdictSubmit: адрес рядом, заказ отправляется без вопросов.
	VerdictSubmit Verdict = iota
	// VerdictTooFar: адрес дальше допустимого, нужно подтверждение пользователя.
	VerdictTooFar
	// VerdictUnverified: адрес не найден на карте, нужно подтверждение пользователя.
	VerdictUnverified
)

func (v Verdict) String() string {
	switch v {
	case VerdictSubmit:
		return "submit"
	case VerdictTooFar:
		return "too_far"
	case VerdictUnverified:
		return "unverified"
	default:
		return "unknown"
	}
}

// MarshalText позволяет отдавать решение в JSON строкой.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Address описывает адрес доставки в том виде, в каком его редактирует пользователь.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	City        string `json:"city"`
	ZipCode     string `json:"zipCode"`
}

// Query возвращает строку поиска для геокодера.
func (a Address) Query() string {
	street := strings.TrimSpace(a.Street + " " + a.HouseNumber)
	return fmt.Sprintf("%s, %s, %s", street, a.City, a.ZipCode)
}

// Result описывает итог проверки адреса.
type Result struct {
	Verdict    Verdict            `json:"verdict"`
	DistanceKm float64            `json:"distanceKm,omitempty"`
	Resolved   *model.Coordinates `json:"resolved,omitempty"`
}

// NeedsConfirmation сообщает, что перед отправкой нужно согласие пользователя.
func (r Result) NeedsConfirmation() bool {
	return r.Verdict != VerdictSubmit
}

// Placement проверяет адрес доставки относительно точки, выбранной на карте.
type Placement struct {
	geocoder      Geocoder
	maxDistanceKm float64
	logger        *zap.Logger
}

// NewPlacement создаёт проверку адреса. Неположительное расстояние заменяется значением по умолчанию.
func NewPlacement(geocoder Geocoder, maxDistanceKm float64, logger *zap.Logger) *Placement {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	return &Placement{geocoder: geocoder, maxDistanceKm: maxDistanceKm, logger: logger}
}

// Check валидирует адрес, геокодирует его и сравнивает с точкой на карте.
func (p *Placement) Check(ctx context.Context, pinned model.Coordinates, addr Address) (Result, error) {
	if err := validation.ValidateAddress(addr.Street, addr.City); err != nil {
		return Result{}, err
	}

	pos, err := p.geocoder.Search(ctx, addr.Query())
	if ctx.Err() != nil {
		return Result{}, ErrDiscarded
	}
	if errors.Is(err, geo.ErrAddressNotFound) {
		p.logger.Info("delivery address not found on the map", zap.String("query", addr.Query()))
		return Result{Verdict: VerdictUnverified}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("verify address: %w", err)
	}

	distance := geo.HaversineKm(pinned, pos)
	p.logger.Debug("delivery distance computed", zap.Float64("km", distance))

	if !geo.IsWithinKm(pinned, pos, p.maxDistanceKm) {
		return Result{Verdict: VerdictTooFar, DistanceKm: distance, Resolved: &pos}, nil
	}
	return Result{Verdict: VerdictSubmit, DistanceKm: distance, Resolved: &pos}, nil
}

// Autofill предлагает адрес доставки по точке на карте.
func (p *Placement) Autofill(ctx context.Context, pinned model.Coordinates) (Address, error) {
	resolved, err := p.geocoder.Reverse(ctx, pinned)
	if ctx.Err() != nil {
		return Address{}, ErrDiscarded
	}
	if err != nil {
		return Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	return Address{
		Street:      resolved.Street,
		HouseNumber: resolved.HouseNumber,
		City:        resolved.City,
		ZipCode:     resolved.ZipCode,
	}, nil
}

// BuildOrder собирает новый заказ из корзины.
func BuildOrder(user model.User, restaurant model.Restaurant, addr Address, c *cart.Cart, now time.Time) model.Order {
	shopZip := restaurant.PostalCode
	if shopZip == "" {
		shopZip = fallbackZipCode
	}

	total, _ := c.Total().Float64()

	return model.Order{
		ClientID:       user.ID,
		ClientUsername: user.Name,
		ShopID:         restaurant.ID,
		ShopName:       restaurant.Name,
		ShopAddress: model.Address{
			Street:  restaurant.Address,
			City:    restaurant.City,
			ZipCode: shopZip,
		},
		DeliveryAddress: model.Address{
			Street:  strings.TrimSpace(addr.Street + " " + addr.HouseNumber),
			City:    addr.City,
			ZipCode: addr.ZipCode,
		},
		Items:      c.LineItems(),
		CreatedAt:  model.NewTimestamp(now),
		Status:     model.StatusPending,
		TotalPrice: total,
	}
}
