package entity

import (
	"time"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// User is a marketplace account. Password always holds the bcrypt hash,
// never the clear text.
type User struct {
	ID         string
	Username   string
	Email      string
	Password   string
	Newsletter bool
	Avatar     *domain.ImageRef
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Account returns the owner-expansion view of the user.
func (u *User) Account() *domain.Account {
	return &domain.Account{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}
