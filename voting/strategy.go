package voting

import (
	"context"

	"github.com/rs/zerolog"
)

// strategy is one step of a fallback chain.
type strategy[T any] struct {
	name string
	f    func(context.Context) (T, error)
}

// tryStrategies runs the strategies in order and stops at the first result
// accepted. Failures are logged and never leave the chain.
func tryStrategies[T any](
	ctx context.Context,
	log *zerolog.Logger,
	strategies []strategy[T],
	accept func(T) bool,
) (T, string, bool) {
	for i := range strategies {
		st := strategies[i]

		v, err := st.f(ctx)

		switch {
		case err != nil:
			log.Debug().Err(err).Str("strategy", st.name).Msg("strategy failed; trying next")
		case accept != nil && !accept(v):
			log.Debug().Str("strategy", st.name).Msg("strategy result not accepted; trying next")
		default:
			log.Debug().Str("strategy", st.name).Msg("strategy succeeded")

			return v, st.name, true
		}
	}

	var zero T

	return zero, "", false
}
