package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem é uma linha do carrinho: um produto (ID) com o preço vigente no momento da adição.
// O carrinho tem no máximo uma linha por ID.
type CartItem struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Image                string          `json:"image"`
	Price                decimal.Decimal `json:"price"`
	Quantity             int             `json:"quantity"`
	RequiresPrescription bool            `json:"requiresPrescription"`
}

// LineTotal é price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MaxItemQuantity é o limite de unidades de um mesmo produto no carrinho.
const MaxItemQuantity = 99

// Cart é o carrinho de um usuário. Subtotal e quantidade total nunca são armazenados.
type Cart struct {
	UserID    string     `json:"-"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Add soma a quantidade se o produto já estiver no carrinho; caso contrário, inclui a linha.
// Quantidades menores que 1 são tratadas como 1; a soma nunca passa de MaxItemQuantity.
func (c *Cart) Add(item CartItem) {
	item.Quantity = clampQuantity(item.Quantity)
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			current := clampQuantity(c.Items[i].Quantity)
			if current > MaxItemQuantity-item.Quantity {
				c.Items[i].Quantity = MaxItemQuantity
			} else {
				c.Items[i].Quantity = current + item.Quantity
			}
			return
		}
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity define a quantidade exata; abaixo de 1 remove a linha.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity < 1 {
		c.Remove(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = clampQuantity(quantity)
			return
		}
	}
}

// QuantityOf retorna as unidades do produto no carrinho (0 se ausente).
func (c Cart) QuantityOf(id string) int {
	for _, it := range c.Items {
		if it.ID == id {
			return it.Quantity
		}
	}
	return 0
}

func clampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxItemQuantity:
		return MaxItemQuantity
	}
	return q
}

// Remove retira a linha do produto; não faz nada se ela não existir.
func (c *Cart) Remove(id string) {
	items := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	c.Items = items
}

// Clear esvazia o carrinho.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// Contains informa se o produto está no carrinho.
func (c Cart) Contains(id string) bool {
	for _, it := range c.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Subtotal = Σ price × quantity.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// TotalItems = Σ quantity.
func (c Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// HasPrescriptionItems indica se algum item exige receita médica.
func (c Cart) HasPrescriptionItems() bool {
	for _, it := range c.Items {
		if it.RequiresPrescription {
			return true
		}
	}
	return false
}

// Snapshot copia os itens para congelá-los em um pedido.
func (c Cart) Snapshot() []CartItem {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return items
}

// CartView é o carrinho como exibido ao cliente, com os valores derivados e o frete.
type CartView struct {
	Items                []CartItem      `json:"items"`
	TotalItems           int             `json:"totalItems"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Shipping             decimal.Decimal `json:"shipping"`
	Total                decimal.Decimal `json:"total"`
	HasPrescriptionItems bool            `json:"hasPrescriptionItems"`
	Notice               string          `json:"notice,omitempty"`
}

// AddToCartRequest é o payload de POST /v1/cart/items.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest é o payload de PUT /v1/cart/items/{id}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
