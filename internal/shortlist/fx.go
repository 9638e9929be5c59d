package shortlist

import (
	"github.com/stagelink/stagelink/internal/shortlist/repository"
	"github.com/stagelink/stagelink/internal/shortlist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shortlist",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
