package domain

import "time"

// User representa o cliente (ou administrador) da farmácia.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Oculta o hash da senha no JSON de resposta
	Phone        string    `json:"phone,omitempty"`
	BirthDate    string    `json:"birthDate,omitempty"` // AAAA-MM-DD
	CPF          string    `json:"cpf,omitempty"`
	Addresses    []Address `json:"addresses"`
	IsAdmin      bool      `json:"isAdmin"`
	Version      int       `json:"version"` // Controle de concorrência otimista
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário
const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Role deriva o papel a partir da flag de administrador.
func (u User) Role() UserRole {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate é o patch aceito em PUT /v1/me. Campos nulos não são alterados.
// A senha não faz parte do patch.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	CPF       *string `json:"cpf,omitempty"`
	Version   int     `json:"version"`
}

// Apply aplica o patch sobre o usuário, preservando o hash da senha.
func (p ProfileUpdate) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.BirthDate != nil {
		u.BirthDate = *p.BirthDate
	}
	if p.CPF != nil {
		u.CPF = *p.CPF
	}
	return u
}

// AuthResult é a resposta de login e registro: a sessão (token) e o usuário autenticado.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// WouldRemoveLastAdmin indica se retirar targetID do conjunto de admins o deixaria vazio.
func WouldRemoveLastAdmin(adminIDs []string, targetID string) bool {
	if len(adminIDs) != 1 {
		return false
	}
	return adminIDs[0] == targetID
}
