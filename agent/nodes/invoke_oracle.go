package dispatchnode

import (
	"context"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

// InvokeOracle makes the single agent call. Failures are recorded on the
// state, never returned.
func InvokeOracle(ctx context.Context, in *GraphState, oracle contractx.Oracle) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	raw, err := oracle.Complete(ctx, in.Prompt)
	in.RawOutput = raw
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("agent oracle call failed")
		in.OracleErr = err
	}
	return in, nil
}
