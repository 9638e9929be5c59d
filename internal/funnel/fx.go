package funnel

import (
	"github.com/stagelink/stagelink/internal/funnel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("funnel",
	fx.Provide(service.NewService),
)
