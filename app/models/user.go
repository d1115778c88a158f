package models

const (
	RoleAdmin  = "admin"
	RoleSeller = "vendedor"
)

// User is an account allowed to call the API.
type User struct {
	Base
	Name     string `gorm:"column:nombre;size:255"                     json:"nombre"`
	Email    string `gorm:"column:email;uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"column:password;size:255;not null"          json:"-"` // bcrypt hash
	Role     string `gorm:"column:rol;size:50;default:vendedor"        json:"rol"`
}

func (User) TableName() string { return "Usuarios" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
