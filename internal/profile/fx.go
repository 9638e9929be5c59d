package profile

import (
	"github.com/stagelink/stagelink/internal/profile/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("profile",
	fx.Provide(repository.Provide),
)
