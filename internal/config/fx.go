package config

import "go.uber.org/fx"

// Module provides the application config and the hot-reloadable funnel tunables.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewFunnelConfigHolder,
	),
)
