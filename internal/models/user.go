package models

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidUserName = errors.New("user name must not be empty")

// User owns accounts and invoices. Identity itself is resolved upstream.
type User struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return ErrInvalidUserName
	}
	return nil
}
