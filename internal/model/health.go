package model

import "strings"

// Health описывает оценку состояния перевозки, присылаемую сервисом инференса.
type Health string

const (
	HealthWaiting      Health = "WAITING"
	HealthVeryPositive Health = "VERY_POSITIVE"
	HealthPositive     Health = "POSITIVE"
	HealthMedium       Health = "MEDIUM"
	HealthNegative     Health = "NEGATIVE"
	HealthVeryNegative Health = "VERY_NEGATIVE"
)

// ParseHealth извлекает оценку из сырой строки: берётся последний токен после запятой.
func ParseHealth(raw string) Health {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, ","); i >= 0 {
		raw = strings.TrimSpace(raw[i+1:])
	}
	return Health(raw)
}

// Color возвращает цвет баннера для оценки.
func (h Health) Color() string {
	switch h {
	case HealthVeryPositive:
		return "#16A34A"
	case HealthPositive:
		return "#84CC16"
	case HealthMedium:
		return "#EAB308"
	case HealthNegative:
		return "#F97316"
	case HealthVeryNegative:
		return "#DC2626"
	default:
		return "#64748B"
	}
}

// Label возвращает текст баннера.
func (h Health) Label() string {
	return strings.ReplaceAll(string(h), "_", " ")
}
