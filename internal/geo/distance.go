// Package geo содержит расчёт расстояний и клиент геокодирования.
package geo

import (
	"math"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

// EarthRadiusKm задаёт радиус Земли в километрах для формулы гаверсинусов.
const EarthRadiusKm = 6371.0

// HaversineKm вычисляет расстояние по дуге большого круга между двумя точками в километрах.
func HaversineKm(a, b model.Coordinates) float64 {
	const degToRad = math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * degToRad
	dLng := (b.Longitude - a.Longitude) * degToRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*degToRad)*math.Cos(b.Latitude*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// IsWithinKm проверяет, что точки находятся не дальше указанного расстояния.
func IsWithinKm(a, b model.Coordinates, radiusKm float64) bool {
	return HaversineKm(a, b) <= radiusKm
}
