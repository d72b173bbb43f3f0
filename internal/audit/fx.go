package audit

import (
	"go.uber.org/fx"

	"github.com/mustafamuse/irshad-center-sub014/internal/audit/repository"
	"github.com/mustafamuse/irshad-center-sub014/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
