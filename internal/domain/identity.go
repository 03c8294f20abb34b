package domain

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// Valid indica si el rol pertenece al conjunto conocido.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

// Identity es un usuario registrado del portal.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public devuelve una copia sin el hash de la contraseña.
func (i Identity) Public() Identity {
	i.PasswordHash = ""
	return i
}

// ProfileFields agrupa los campos mutables del perfil.
type ProfileFields struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Country   string
}

// ProfileUpdate es una actualización parcial: los campos nil no se tocan.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	City      *string
	Country   *string
}

// Empty indica que la actualización no cambia nada.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.Address == nil && u.City == nil && u.Country == nil
}

// Apply copia sobre identity los campos presentes en la actualización.
func (u ProfileUpdate) Apply(identity *Identity) {
	if u.FirstName != nil {
		identity.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		identity.LastName = *u.LastName
	}
	if u.Phone != nil {
		identity.Phone = *u.Phone
	}
	if u.Address != nil {
		identity.Address = *u.Address
	}
	if u.City != nil {
		identity.City = *u.City
	}
	if u.Country != nil {
		identity.Country = *u.Country
	}
}
