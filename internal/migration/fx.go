package migration

import (
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	"github.com/stagelink/stagelink/internal/config"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stagelink/stagelink/internal/seed"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql run in dev or test setups; the gorm models are
			// the source of truth there.
			if err := conn.AutoMigrate(
				&accountdomain.User{},
				&profiledomain.CandidateProfile{},
				&projectdomain.Project{},
				&applicationdomain.Application{},
				&shortlistdomain.Snapshot{},
				&shortlistdomain.SnapshotEntry{},
			); err != nil {
				return err
			}
		}

		if cfg.Environment == "development" {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
