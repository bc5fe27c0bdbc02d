package dispatchnode

import (
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
)

// NormalizeEnvelope turns the direct final answer or the tool's text into
// the answer envelope.
func NormalizeEnvelope(in *GraphState) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	if in.Parsed.IsFinal() {
		in.Envelope = contractx.EnvelopeFromFields(in.Parsed.Fields, contractx.ToolGeneralConversation).PromoteOutput()
		return in, nil
	}

	if body, ok := parserx.FinalAnswerBody(in.ToolOutput); ok {
		if fields, ok := parserx.DecodeObject(body); ok {
			in.Envelope = contractx.EnvelopeFromFields(fields, in.ToolName)
			return in, nil
		}
	}

	in.Envelope = contractx.Envelope{
		Output:     contractx.DefaultEnvelopeOutput,
		ActionTool: in.ToolName,
		Message:    in.ToolOutput,
	}
	return in, nil
}
