// Package domain contains persistence models for platform accounts.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
)

// Role separates the three account types on the platform.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleCompany Role = "COMPANY"
	RoleAdmin   Role = "ADMIN"
)

// SubscriptionStatus mirrors the billing collaborator's view of a plan.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// User is a platform account. The monthly application counter and its reset
// marker are owned by the quota enforcer; subscription fields are written by
// billing events outside this service.
type User struct {
	ID                    snowflake.ID       `gorm:"primaryKey"`
	Email                 string             `gorm:"type:text;not null;uniqueIndex"`
	FullName              string             `gorm:"type:text"`
	Role                  Role               `gorm:"type:text;not null;index"`
	SubscriptionPlan      tierdomain.Plan    `gorm:"type:text;not null"`
	SubscriptionStatus    SubscriptionStatus `gorm:"type:text;not null;default:ACTIVE"`
	ApplicationsThisMonth int                `gorm:"not null;default:0"`
	LastMonthlyReset      time.Time          `gorm:"not null"`
	CreatedAt             time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidRole  = errors.New("invalid_role")
)
