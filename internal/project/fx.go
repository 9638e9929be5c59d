package project

import (
	"github.com/stagelink/stagelink/internal/project/repository"
	"github.com/stagelink/stagelink/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
