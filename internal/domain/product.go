package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa um item do catálogo da farmácia.
type Product struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Price                decimal.Decimal  `json:"price"`
	OldPrice             *decimal.Decimal `json:"oldPrice,omitempty"` // Preço "de" exibido riscado em promoções
	Image                string           `json:"image"`
	Description          string           `json:"description,omitempty"`
	Features             []string         `json:"features,omitempty"`
	Brand                string           `json:"brand,omitempty"`
	Category             string           `json:"category,omitempty"`    // slug da categoria
	Subcategory          string           `json:"subcategory,omitempty"` // slug da subcategoria
	RequiresPrescription bool             `json:"requiresPrescription"`
	InStock              bool             `json:"inStock"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// ProductFilter define os parâmetros de busca e paginação do catálogo.
type ProductFilter struct {
	Page        int
	Limit       int
	Search      string
	Category    string
	Subcategory string
	InStockOnly bool
}

// Normalize aplica os limites padrão de paginação.
func (f ProductFilter) Normalize() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

// Offset calcula o deslocamento SQL da página.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// CartItem converte o produto no snapshot usado pelo carrinho.
func (p Product) CartItem(quantity int) CartItem {
	return CartItem{
		ID:                   p.ID,
		Name:                 p.Name,
		Image:                p.Image,
		Price:                p.Price,
		Quantity:             quantity,
		RequiresPrescription: p.RequiresPrescription,
	}
}

// ProductPage é uma página do catálogo.
type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
