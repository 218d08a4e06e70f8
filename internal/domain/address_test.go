package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gofarma/internal/domain"
)

func TestDefaultAddress(t *testing.T) {
	_, ok := domain.DefaultAddress(nil)
	assert.False(t, ok)

	list := []domain.Address{{ID: "a1"}, {ID: "a2"}}
	got, ok := domain.DefaultAddress(list)
	assert.True(t, ok)
	assert.Equal(t, "a1", got.ID, "sem padrão, o primeiro endereço é usado")

	list[1].IsDefault = true
	got, _ = domain.DefaultAddress(list)
	assert.Equal(t, "a2", got.ID)
}

func TestMarkDefault_LeavesExactlyOne(t *testing.T) {
	list := []domain.Address{{ID: "a1", IsDefault: true}, {ID: "a2"}, {ID: "a3", IsDefault: true}}

	out := domain.MarkDefault(list, "a2")

	defaults := 0
	for _, a := range out {
		if a.IsDefault {
			defaults++
			assert.Equal(t, "a2", a.ID)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.True(t, list[0].IsDefault, "a lista original não é alterada")
}

func TestAddressMissingFields(t *testing.T) {
	a := domain.AddressInput{Street: "Rua das Flores", Number: "10", City: "Recife"}.ToAddress("u1")

	assert.Equal(t, []string{"neighborhood", "state", "zipCode"}, a.MissingFields())
}

func TestAddressPatchApply(t *testing.T) {
	city := "Olinda"
	yes := true
	a := domain.Address{ID: "a1", City: "Recife", State: "PE"}

	out := domain.AddressPatch{City: &city, IsDefault: &yes}.Apply(a)

	assert.Equal(t, "Olinda", out.City)
	assert.Equal(t, "PE", out.State)
	assert.True(t, out.IsDefault)
}

func TestProfileUpdateApply_KeepsPassword(t *testing.T) {
	name := "Maria"
	u := domain.User{Name: "M", PasswordHash: "hash"}

	out := domain.ProfileUpdate{Name: &name}.Apply(u)

	assert.Equal(t, "Maria", out.Name)
	assert.Equal(t, "hash", out.PasswordHash)
}

func TestWouldRemoveLastAdmin(t *testing.T) {
	assert.True(t, domain.WouldRemoveLastAdmin([]string{"a"}, "a"))
	assert.False(t, domain.WouldRemoveLastAdmin([]string{"a"}, "b"))
	assert.False(t, domain.WouldRemoveLastAdmin([]string{"a", "b"}, "a"))
	assert.False(t, domain.WouldRemoveLastAdmin(nil, "a"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "higiene-beleza", domain.Slugify("Higiene & Beleza"))
	assert.Equal(t, "medicamentos", domain.Slugify("  Medicamentos "))
	assert.Equal(t, "vitaminas-e-suplementos", domain.Slugify("Vitaminas e Suplementos"))
	assert.Equal(t, "mae-e-bebe", domain.Slugify("Mãe e Bebê"))
}
