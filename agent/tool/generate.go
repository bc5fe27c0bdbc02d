package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	generateMessage         = "Generating Sequence..."
	fallbackSellingPoints   = "From requirements"
	fallbackValuesRuneLimit = 100
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	targetRolePattern = regexp.MustCompile(`(?i)target role[:\s]+([^,\n.]+)`)
	industryPattern   = regexp.MustCompile(`(?i)industry[:\s]+([^,\n.]+)`)
)

type generateTool struct {
	oracle    contractx.Oracle
	generator SequenceGenerator
	sequences contractx.SequenceStore
	prompts   promptx.PromptSet
}

func (t *generateTool) Info() *schema.ToolInfo {
	return inputInfo(
		contractx.ToolGenerateSequence,
		"Generate an outreach sequence for a campaign_id based on campaign requirements.",
		"Campaign requirements as text or a JSON object, including campaign_id when known",
	)
}

func (t *generateTool) Run(ctx context.Context, call Call) (string, error) {
	input := strings.TrimSpace(call.Input)

	var (
		info       sequence.CampaignInfo
		campaignID int64
	)
	if obj, ok := parserx.DecodeObject(input); ok {
		info = sequence.CampaignInfoFromMap(obj)
		campaignID = idValue(obj["campaign_id"])
	} else {
		campaignID = ExtractCampaignID(input)
		info = t.extractCampaignInfo(ctx, input)
	}

	doc := t.generator.Generate(ctx, info)

	if campaignID == 0 {
		campaignID = CampaignIDFromMemory(call.Memory)
	}

	output, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal generated sequence: %w", err)
	}
	env := contractx.Envelope{
		Output:     string(output),
		ActionTool: contractx.ToolGenerateSequence,
		Message:    generateMessage,
	}

	if campaignID > 0 {
		env.CampaignID = &campaignID
		row := &model.OutreachSequence{CampaignID: campaignID, SequenceData: doc, Version: 1}
		if err := t.sequences.CreateSequence(ctx, row); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("campaign_id", campaignID).Msg("save generated sequence")
		} else {
			sequenceID := row.ID
			env.SequenceID = &sequenceID
			env.Message += fmt.Sprintf(" (ID: %d)", sequenceID)
		}
	}

	return parserx.FinalAnswer(env), nil
}

// extractCampaignInfo asks the oracle to structure free text and falls back
// to a keyword scan when the reply is unusable.
func (t *generateTool) extractCampaignInfo(ctx context.Context, text string) sequence.CampaignInfo {
	prompt, err := promptx.Render(ctx, t.prompts.Extract, map[string]any{"requirements": text})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("render extract prompt")
		return scanCampaignInfo(text)
	}

	raw, err := t.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("campaign info extraction failed")
		return scanCampaignInfo(text)
	}

	if obj, ok := decodeExtraction(raw); ok {
		return sequence.CampaignInfoFromMap(obj)
	}
	return scanCampaignInfo(text)
}

func decodeExtraction(raw string) (map[string]any, bool) {
	if m := fencedJSONPattern.FindStringSubmatch(raw); len(m) == 2 {
		return parserx.DecodeObject(strings.TrimSpace(m[1]))
	}
	return parserx.DecodeObject(strings.TrimSpace(raw))
}

func scanCampaignInfo(text string) sequence.CampaignInfo {
	var info sequence.CampaignInfo
	if m := targetRolePattern.FindStringSubmatch(text); len(m) == 2 {
		info.TargetRole = strings.TrimSpace(m[1])
	}
	if m := industryPattern.FindStringSubmatch(text); len(m) == 2 {
		info.Industry = strings.TrimSpace(m[1])
	}
	if info.IsZero() {
		runes := []rune(text)
		if len(runes) > fallbackValuesRuneLimit {
			runes = runes[:fallbackValuesRuneLimit]
		}
		info.CompanyValues = string(runes)
		info.UniqueSellingPoints = fallbackSellingPoints
	}
	return info
}
