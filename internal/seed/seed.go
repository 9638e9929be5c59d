// Package seed bootstraps demo records for local and self-hosted runs.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoAdminEmail   = "admin@stagelink.dev"
	demoCompanyEmail = "talent@acme.example"
	demoStudentEmail = "ada@student.example"
)

// EnsureDemoData seeds an admin, a demo company with one live project, and a
// demo student. Idempotent: existing records are left alone.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ensureUserTx(ctx, tx, node, demoAdminEmail, "StageLink Admin", accountdomain.RoleAdmin, tierdomain.PlanStudentFree); err != nil {
			return err
		}

		company, err := ensureUserTx(ctx, tx, node, demoCompanyEmail, "Acme Talent", accountdomain.RoleCompany, tierdomain.PlanCompanyGrowth)
		if err != nil {
			return err
		}
		if err := ensureDemoProjectTx(ctx, tx, node, company.ID); err != nil {
			return err
		}

		student, err := ensureUserTx(ctx, tx, node, demoStudentEmail, "Ada Student", accountdomain.RoleStudent, tierdomain.PlanStudentFree)
		if err != nil {
			return err
		}
		return ensureDemoProfileTx(ctx, tx, node, student.ID)
	})
}

func ensureUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, name string, role accountdomain.Role, plan tierdomain.Plan) (accountdomain.User, error) {
	var user accountdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	now := time.Now().UTC()
	user = accountdomain.User{
		ID:                 node.Generate(),
		Email:              email,
		FullName:           name,
		Role:               role,
		SubscriptionPlan:   plan,
		SubscriptionStatus: accountdomain.SubscriptionStatusActive,
		LastMonthlyReset:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return user, err
	}
	return user, nil
}

func ensureDemoProjectTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, companyID snowflake.ID) error {
	var project projectdomain.Project
	err := tx.WithContext(ctx).Where("company_id = ?", companyID).First(&project).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	id := node.Generate()
	project = projectdomain.Project{
		ID:             id,
		CompanyID:      companyID,
		Title:          "Backend Engineering Internship",
		Slug:           fmt.Sprintf("backend-engineering-internship-%s", id.Base36()),
		Description:    "Build and operate Go services with the platform team.",
		RequiredSkills: datatypes.NewJSONSlice([]string{"go", "sql", "docker"}),
		PreferredMajor: "Computer Science",
		Status:         projectdomain.StatusLive,
	}
	return tx.WithContext(ctx).Create(&project).Error
}

func ensureDemoProfileTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	var profile profiledomain.CandidateProfile
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	profile = profiledomain.CandidateProfile{
		ID:             node.Generate(),
		UserID:         userID,
		FullName:       "Ada Student",
		University:     "TU Delft",
		Major:          "Computer Science",
		GraduationYear: 2027,
		Skills:         datatypes.NewJSONSlice([]string{"go", "sql", "docker"}),
		Bio:            "Third-year CS student, backend focused.",
	}
	return tx.WithContext(ctx).Create(&profile).Error
}
