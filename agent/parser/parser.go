// Package parser decodes the agent's textual reply protocol.
//
// A reply is either a terminal answer:
//
//	Final Answer: {"output": "...", "action_tool": "...", "message": "..."}
//
// or a single tool call:
//
//	Action: generate_sequence
//	Action Input: campaign_id: 4, make it short
//
// Anything else is treated as conversational text for the fallback tool.
package parser

import (
	"encoding/json"
	"strings"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

const (
	FinalAnswerMarker = "Final Answer:"
	actionPrefix      = "Action:"
	actionInputPrefix = "Action Input:"
)

type Kind int

const (
	KindAction Kind = iota
	KindFinalAnswer
)

// Result is the decoded reply. Fields is set for KindFinalAnswer; Tool and
// Input are set for KindAction.
type Result struct {
	Kind   Kind
	Fields map[string]any
	Tool   string
	Input  string
}

func (r Result) IsFinal() bool {
	return r.Kind == KindFinalAnswer
}

// Parse never fails: text that matches neither form becomes a
// general-conversation action carrying the whole input.
func Parse(raw string) Result {
	if body, ok := FinalAnswerBody(raw); ok {
		return Result{Kind: KindFinalAnswer, Fields: decodeFinalAnswer(body)}
	}

	if tool, input, ok := parseAction(raw); ok {
		return Result{Kind: KindAction, Tool: tool, Input: input}
	}

	return Result{Kind: KindAction, Tool: contractx.ToolGeneralConversation, Input: raw}
}

// FinalAnswerBody returns the trimmed text after the last final-answer marker.
func FinalAnswerBody(raw string) (string, bool) {
	idx := strings.LastIndex(raw, FinalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(raw[idx+len(FinalAnswerMarker):]), true
}

// DecodeObject decodes body as a JSON object when it starts with "{".
func DecodeObject(body string) (map[string]any, bool) {
	if !strings.HasPrefix(body, "{") {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// FinalAnswer renders v in the terminal-answer form.
func FinalAnswer(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		fallback, _ := json.Marshal(contractx.Envelope{
			Output:     "Conversation response",
			ActionTool: contractx.ToolGeneralConversation,
			Message:    contractx.DefaultAssistantGreeting,
			Error:      true,
		})
		raw = fallback
	}
	return FinalAnswerMarker + " " + string(raw)
}

func decodeFinalAnswer(body string) map[string]any {
	if fields, ok := DecodeObject(body); ok {
		return fields
	}
	return map[string]any{"output": body}
}

// parseAction looks for an "Action:" line followed by an "Action Input:"
// line. The input runs to the end of the text.
func parseAction(raw string) (string, string, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, actionPrefix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, actionPrefix))

		// Both parts on a single line.
		if idx := strings.Index(rest, actionInputPrefix); idx >= 0 {
			tool := strings.TrimSpace(rest[:idx])
			input := rest[idx+len(actionInputPrefix):]
			if len(lines) > i+1 {
				input += "\n" + strings.Join(lines[i+1:], "\n")
			}
			return finishAction(tool, input)
		}

		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if !strings.HasPrefix(next, actionInputPrefix) {
				break
			}
			input := strings.TrimPrefix(next, actionInputPrefix)
			if len(lines) > j+1 {
				input += "\n" + strings.Join(lines[j+1:], "\n")
			}
			return finishAction(rest, input)
		}
	}
	return "", "", false
}

func finishAction(tool, input string) (string, string, bool) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return "", "", false
	}
	return tool, strings.TrimSpace(input), true
}
