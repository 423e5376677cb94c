package metrics

import "go.uber.org/fx"

// Module provides the process-wide metrics instance
var Module = fx.Module("metrics",
	fx.Provide(GetDefaultMetrics),
)
