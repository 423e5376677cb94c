package errors

import "go.uber.org/fx"

var Module = fx.Module("errors",
	fx.Provide(NewMapper),
)
