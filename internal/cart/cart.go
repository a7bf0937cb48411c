// Package cart реализует корзину клиента до оформления заказа.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

// Cart хранит выбранные блюда в порядке добавления. Каждое добавление создаёт отдельную позицию.
type Cart struct {
	items []model.MenuItem
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{}
}

// Add добавляет блюдо в конец корзины.
func (c *Cart) Add(item model.MenuItem) {
	c.items = append(c.items, item)
}

// Remove удаляет позицию по индексу, сохраняя порядок остальных.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("cart index %d out of range [0,%d)", index, len(c.items))
	}
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	return nil
}

// Len возвращает количество позиций.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items возвращает копию содержимого корзины.
func (c *Cart) Items() []model.MenuItem {
	res := make([]model.MenuItem, len(c.items))
	copy(res, c.items)
	return res
}

// Total возвращает сумму цен всех позиций.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(decimal.NewFromFloat(it.Price))
	}
	return total
}

// LineItems преобразует корзину в позиции заказа с количеством 1.
func (c *Cart) LineItems() []model.LineItem {
	res := make([]model.LineItem, 0, len(c.items))
	for _, it := range c.items {
		res = append(res, model.LineItem{
			ProductName: it.Name,
			Quantity:    1,
			Price:       it.Price,
		})
	}
	return res
}

// Reset очищает корзину.
func (c *Cart) Reset() {
	c.items = nil
}
