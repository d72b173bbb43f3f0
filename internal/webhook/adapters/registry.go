package adapters

import (
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
	"github.com/mustafamuse/irshad-center-sub014/internal/webhook/domain"
)

// Registry holds one explicitly constructed adapter per program. Keeping
// the two instances separate makes it impossible to verify a dugsi
// delivery with the mahad secret or vice versa.
type Registry struct {
	byProgram map[program.Program]domain.ProviderAdapter
}

func NewRegistry(adapters ...domain.ProviderAdapter) *Registry {
	byProgram := make(map[program.Program]domain.ProviderAdapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		byProgram[adapter.Program()] = adapter
	}
	return &Registry{byProgram: byProgram}
}

// Get returns the adapter for a program.
func (r *Registry) Get(p program.Program) (domain.ProviderAdapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.byProgram[p]
	return adapter, ok
}
