package models

// Role distinguishes admins from customers.
type Role int

const (
	RoleCustomer Role = 0
	RoleAdmin    Role = 1
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents an account of the storefront.
type User struct {
	BaseModel
	Username     string  `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"column:password;not null" json:"-"`
	Email        string  `gorm:"size:191;uniqueIndex;not null" json:"email"`
	FullName     string  `json:"full_name"`
	Address      string  `json:"address"`
	Role         Role    `gorm:"not null" json:"role"`
	Orders       []Order `json:"orders,omitempty"`
}

// DeletionPolicy implements Deletable.
func (User) DeletionPolicy() DeletionPolicy { return DeletionGuardedHard }
