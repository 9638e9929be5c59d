package scoring

import (
	"github.com/stagelink/stagelink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Param struct {
	fx.In

	Log    *zap.Logger
	Holder *config.FunnelConfigHolder
}

func NewScorer(p Param) Scorer {
	return NewTimedScorer(NewRuleScorer(p.Log), p.Holder, p.Log)
}

var Module = fx.Module("scoring",
	fx.Provide(NewScorer),
)
