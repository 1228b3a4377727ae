// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/uptrace/bun"
)

// Report statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Roles.
const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// ValidStatus reports whether s is a known report status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Category maps the `categories` table.
type Category struct {
	bun.BaseModel `bun:"table:categories"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
	Description   string    `bun:"description" json:"description"`
	Icon          string    `bun:"icon" json:"icon"`
	Color         string    `bun:"color" json:"color"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// User maps the `users` table.
type User struct {
	bun.BaseModel `bun:"table:users"`
	ID            int64     `bun:"id,pk,autoincrement" json:"-"`
	PublicID      string    `bun:"public_id,notnull,unique" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Role          string    `bun:"role,notnull" json:"role"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Report maps the `reports` table.
type Report struct {
	bun.BaseModel `bun:"table:reports"`
	ID            int64     `bun:"id,pk,autoincrement" json:"-"`
	PublicID      string    `bun:"public_id,notnull,unique" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description,type:text,notnull" json:"description"`
	Status        string    `bun:"status,notnull" json:"status"`
	Address       string    `bun:"address" json:"address,omitempty"`
	Latitude      *float64  `bun:"latitude" json:"latitude,omitempty"`
	Longitude     *float64  `bun:"longitude" json:"longitude,omitempty"`
	ImageURL      string    `bun:"image_url" json:"imageUrl,omitempty"`
	CategoryID    int64     `bun:"category_id,notnull" json:"categoryId"`
	Category      *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	UserID        *int64    `bun:"user_id" json:"-"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// models lists every table in dependency order; drops run in reverse.
func models() []any {
	return []any{
		(*Category)(nil),
		(*User)(nil),
		(*Report)(nil),
	}
}
