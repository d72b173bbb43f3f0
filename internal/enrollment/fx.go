package enrollment

import (
	"go.uber.org/fx"

	"github.com/mustafamuse/irshad-center-sub014/internal/enrollment/repository"
)

var Module = fx.Module("enrollment.store",
	fx.Provide(repository.Provide),
)
