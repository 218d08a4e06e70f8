package domain

import (
	"strings"
	"time"
)

// Address é um endereço de entrega pertencente a um usuário.
// Por usuário, no máximo um endereço tem IsDefault = true.
type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Street       string    `json:"street"`
	Number       string    `json:"number"`
	Complement   string    `json:"complement,omitempty"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zipCode"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AddressInput é o payload de criação de endereço.
type AddressInput struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	IsDefault    bool   `json:"isDefault"`
}

// ToAddress converte o payload em entidade (sem ID).
func (in AddressInput) ToAddress(userID string) Address {
	return Address{
		UserID:       userID,
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Complement:   strings.TrimSpace(in.Complement),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        strings.ToUpper(strings.TrimSpace(in.State)),
		ZipCode:      strings.TrimSpace(in.ZipCode),
		IsDefault:    in.IsDefault,
	}
}

// AddressPatch é o patch de atualização de endereço. Campos nulos não são alterados.
type AddressPatch struct {
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
	IsDefault    *bool   `json:"isDefault,omitempty"`
}

// Apply mescla o patch no endereço.
func (p AddressPatch) Apply(a Address) Address {
	if p.Street != nil {
		a.Street = strings.TrimSpace(*p.Street)
	}
	if p.Number != nil {
		a.Number = strings.TrimSpace(*p.Number)
	}
	if p.Complement != nil {
		a.Complement = strings.TrimSpace(*p.Complement)
	}
	if p.Neighborhood != nil {
		a.Neighborhood = strings.TrimSpace(*p.Neighborhood)
	}
	if p.City != nil {
		a.City = strings.TrimSpace(*p.City)
	}
	if p.State != nil {
		a.State = strings.ToUpper(strings.TrimSpace(*p.State))
	}
	if p.ZipCode != nil {
		a.ZipCode = strings.TrimSpace(*p.ZipCode)
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	return a
}

// MissingFields lista os campos obrigatórios vazios.
func (a Address) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
	}
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// DefaultAddress retorna o endereço padrão; na falta dele, o primeiro da lista.
func DefaultAddress(addresses []Address) (Address, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(addresses) > 0 {
		return addresses[0], true
	}
	return Address{}, false
}

// MarkDefault devolve uma cópia da lista com apenas o endereço id marcado como padrão.
func MarkDefault(addresses []Address, id string) []Address {
	out := make([]Address, len(addresses))
	for i, a := range addresses {
		a.IsDefault = a.ID == id
		out[i] = a
	}
	return out
}

// BecomesDefault decide se um endereço novo entra como padrão: o primeiro do usuário sempre entra.
func BecomesDefault(existing int, requested bool) bool {
	return existing == 0 || requested
}
