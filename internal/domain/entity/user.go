package entity

import "time"

// Roles válidos para User dentro de un bar.
const (
	RoleOwner     = "owner"
	RoleManager   = "manager"
	RoleBartender = "bartender"
	RoleServer    = "server"
)

// ValidRole indica si r es uno de los roles conocidos.
func ValidRole(r string) bool {
	switch r {
	case RoleOwner, RoleManager, RoleBartender, RoleServer:
		return true
	}
	return false
}

// IsManagement owner o manager.
func IsManagement(role string) bool {
	return role == RoleOwner || role == RoleManager
}

// User representa un miembro del personal (pertenece a un Bar).
// Como holder de custodia solo se referencia por ID, nunca es dueño de filas.
type User struct {
	ID           string
	BarID        string
	Name         string
	Phone        string
	PasswordHash string // bcrypt hash de la contraseña o PIN
	Role         string // owner, manager, bartender, server
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active indica si el usuario puede operar.
func (u *User) Active() bool { return u != nil && u.Status == "active" }
