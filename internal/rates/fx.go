package rates

import (
	"go.uber.org/fx"

	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
)

var Module = fx.Module("rates",
	fx.Provide(func(profiles enrollmentdomain.Store) Calculator {
		return NewTableCalculator(DefaultTable(), profiles)
	}),
)
