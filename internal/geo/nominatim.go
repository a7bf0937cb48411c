package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

// ErrAddressNotFound возвращается, если сервис геокодирования не нашёл адрес.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder обращается к API Nominatim для прямого и обратного геокодирования.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *retryablehttp.Client
}

// ResolvedAddress описывает адрес, полученный обратным геокодированием.
type ResolvedAddress struct {
	Street      string
	HouseNumber string
	City        string
	ZipCode     string
}

// NewGeocoder создаёт клиент геокодирования с указанным User-Agent.
func NewGeocoder(baseURL, userAgent string, logger *zap.Logger) *Geocoder {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = retryLogger{sugar: logger.Sugar()}

	return &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search ищет координаты по строке адреса.
func (g *Geocoder) Search(ctx context.Context, query string) (model.Coordinates, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)

	var results []searchResult
	if err := g.get(ctx, "/search?"+params.Encode(), &results); err != nil {
		return model.Coordinates{}, err
	}

	if len(results) == 0 {
		return model.Coordinates{}, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}

	return model.Coordinates{Latitude: lat, Longitude: lon}, nil
}

type reverseResult struct {
	Address *struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Reverse определяет адрес по координатам.
func (g *Geocoder) Reverse(ctx context.Context, at model.Coordinates) (ResolvedAddress, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))

	var result reverseResult
	if err := g.get(ctx, "/reverse?"+params.Encode(), &result); err != nil {
		return ResolvedAddress{}, err
	}

	if result.Address == nil {
		return ResolvedAddress{}, ErrAddressNotFound
	}

	a := result.Address
	return ResolvedAddress{
		Street:      firstNonEmpty(a.Road, a.Pedestrian),
		HouseNumber: a.HouseNumber,
		City:        firstNonEmpty(a.City, a.Town, a.Village),
		ZipCode:     a.Postcode,
	}, nil
}

func (g *Geocoder) get(ctx context.Context, path string, dst any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// retryLogger адаптирует zap к интерфейсу retryablehttp.LeveledLogger.
type retryLogger struct {
	sugar *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
