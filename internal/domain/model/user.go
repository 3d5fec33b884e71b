package model

import (
	"strings"
	"time"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"

	"github.com/google/uuid"
)

// User is a marketplace account that can own a discount plan.
// TelegramChatID is set when the owner linked the notifications bot.
type User struct {
	ID             string
	Name           string
	Email          string
	TelegramChatID *int64
	RegisteredAt   time.Time
}

func NewUser(id, name, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Name:         name,
		Email:        strings.TrimSpace(email),
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// PlanOwner is the public view of a plan owner returned to providers.
type PlanOwner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
