package webhook

import (
	"go.uber.org/fx"

	"github.com/mustafamuse/irshad-center-sub014/internal/config"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/adapters"
	stripeadapter "github.com/mustafamuse/irshad-center-sub014/internal/webhook/adapters/stripe"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/repository"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/service"
)

// Module wires one Stripe adapter per program track plus the
// reconciliation pipeline around them.
var Module = fx.Module("webhook.service",
	fx.Provide(func(cfg config.Config) *adapters.Registry {
		return adapters.NewRegistry(
			stripeadapter.NewAdapter(program.Dugsi, cfg.Dugsi),
			stripeadapter.NewAdapter(program.Mahad, cfg.Mahad),
		)
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
