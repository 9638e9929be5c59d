// Package domain defines the monthly application quota contract. The quota
// enforcer is the single authority for period-boundary decisions; no other
// component decides what counts as a new month.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
)

// Decision reports the outcome of a quota evaluation.
type Decision struct {
	Allowed         bool            `json:"allowed"`
	Used            int             `json:"used"`
	Max             int             `json:"max"`
	Remaining       int             `json:"remaining"`
	Unlimited       bool            `json:"unlimited"`
	NextResetDate   time.Time       `json:"next_reset_date"`
	RequiresUpgrade bool            `json:"requires_upgrade"`
	UpgradePlan     tierdomain.Plan `json:"upgrade_plan,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

type Service interface {
	// Check evaluates the quota without consuming a slot. The lazy monthly
	// reset still applies, so a stale counter is corrected on read.
	Check(ctx context.Context, userID snowflake.ID) (Decision, error)

	// CheckAndReserve atomically consumes one application slot. Returns
	// ErrQuotaExceeded alongside the decision when no slot remains.
	CheckAndReserve(ctx context.Context, userID snowflake.ID) (Decision, error)
}

var (
	ErrQuotaExceeded = errors.New("quota_exceeded")
)
