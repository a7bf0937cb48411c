package broker

import "strings"

// Kind описывает тип канала брокера.
type Kind int

const (
	KindUnknown Kind = iota
	KindOrderStatus
	KindRiderPosition
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindOrderStatus:
		return "order_status"
	case KindRiderPosition:
		return "rider_position"
	case KindInference:
		return "inference"
	default:
		return "unknown"
	}
}

// OrderTopic возвращает канал событий статуса заказа.
func OrderTopic(shopID, orderID string) string {
	return "shop/" + shopID + "/" + orderID
}

// PositionTopic возвращает канал позиции курьера по заказу.
func PositionTopic(shopID, orderID string) string {
	return "rider/position/" + shopID + "/" + orderID
}

// InferenceFilter возвращает фильтр каналов оценки перевозки по заказу.
func InferenceFilter(orderID string) string {
	return "inference/" + orderID + "/+"
}

// ParseTopic определяет тип канала и идентификатор заказа.
func ParseTopic(topic string) (Kind, string) {
	parts := strings.Split(topic, "/")
	switch {
	case len(parts) == 3 && parts[0] == "shop":
		return KindOrderStatus, parts[2]
	case len(parts) == 4 && parts[0] == "rider" && parts[1] == "position":
		return KindRiderPosition, parts[3]
	case len(parts) >= 3 && parts[0] == "inference":
		return KindInference, parts[1]
	default:
		return KindUnknown, ""
	}
}
