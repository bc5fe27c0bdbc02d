package dispatchnode

import (
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
)

func ParseOutput(in *GraphState) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	if in.OracleErr != nil {
		in.Parsed = parserx.Result{
			Kind:  parserx.KindAction,
			Tool:  contractx.ToolGeneralConversation,
			Input: in.fallbackInput(),
		}
		return in, nil
	}

	in.Parsed = parserx.Parse(in.RawOutput)
	return in, nil
}
