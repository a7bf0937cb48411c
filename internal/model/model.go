// Package model содержит доменные сущности клиента FastGo.
package model

// Coordinates описывает точку на карте.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address описывает адрес ресторана или доставки.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
}

// LineItem описывает позицию заказа.
type LineItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"priceProduct"`
}

// Order описывает заказ клиента в формате сервиса заказов.
type Order struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"clientId"`
	ClientUsername  string     `json:"usernameClient"`
	ShopID          string     `json:"shopId"`
	ShopName        string     `json:"shopName"`
	ShopAddress     Address    `json:"shopAddress"`
	DeliveryAddress Address    `json:"deliveryAddress"`
	Items           []LineItem `json:"orderDetails"`
	CreatedAt       Timestamp  `json:"orderDate"`
	Status          Status     `json:"orderStatus"`
	TotalPrice      float64    `json:"totalPrice"`
	RiderID         string     `json:"riderId,omitempty"`
	RiderName       string     `json:"riderName,omitempty"`
}

// Restaurant описывает ресторан из поиска поблизости.
type Restaurant struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"restaurantName"`
	City        string `json:"restaurantCity"`
	Address     string `json:"restaurantAddress"`
	PostalCode  string `json:"restaurantPostalCode"`
	Province    string `json:"restaurantProvince"`
	PhoneNumber string `json:"restaurantPhoneNumber,omitempty"`
	Latitude    string `json:"latitude,omitempty"`
	Longitude   string `json:"longitude,omitempty"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// MenuItem описывает блюдо из меню ресторана.
type MenuItem struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
}

// Menu описывает меню ресторана.
type Menu struct {
	ID     string     `json:"id,omitempty"`
	ShopID string     `json:"shopId,omitempty"`
	Items  []MenuItem `json:"items"`
}

// User описывает текущего пользователя, извлечённого из токена.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// RegistrationProfile описывает данные для регистрации клиента.
type RegistrationProfile struct {
	Name            string `json:"name"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Role            string `json:"role"`
	PictureURL      string `json:"pictureUrl"`
}

// RoleUser обозначает роль клиента, единственную допустимую в приложении.
const RoleUser = "USER"
