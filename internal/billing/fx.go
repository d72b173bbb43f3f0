package billing

import (
	"go.uber.org/fx"

	"github.com/mustafamuse/irshad-center-sub014/internal/billing/repository"
	"github.com/mustafamuse/irshad-center-sub014/internal/billing/service"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
