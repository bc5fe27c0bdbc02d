// Package sequence turns campaign details into multi-step outreach sequences
// using a completion oracle.
package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	DefaultTargetRole          = "Software Engineer"
	DefaultIndustry            = "Technology"
	DefaultCompanyValues       = "Innovation, Collaboration, Excellence"
	DefaultUniqueSellingPoints = "Remote-first, Competitive salary, Growth opportunities"

	ErrGenerateText = "Could not generate valid sequence"
	ErrEditText     = "Could not generate valid edited sequence"
)

type CampaignInfo struct {
	TargetRole          string `json:"target_role"`
	Industry            string `json:"industry"`
	CompanyValues       string `json:"company_values"`
	UniqueSellingPoints string `json:"unique_selling_points"`
}

// CampaignInfoFromMap reads the known keys from a decoded JSON object.
// Non-string values are rendered as JSON text.
func CampaignInfoFromMap(m map[string]any) CampaignInfo {
	return CampaignInfo{
		TargetRole:          text(m["target_role"]),
		Industry:            text(m["industry"]),
		CompanyValues:       text(m["company_values"]),
		UniqueSellingPoints: text(m["unique_selling_points"]),
	}
}

func (c CampaignInfo) IsZero() bool {
	return strings.TrimSpace(c.TargetRole) == "" &&
		strings.TrimSpace(c.Industry) == "" &&
		strings.TrimSpace(c.CompanyValues) == "" &&
		strings.TrimSpace(c.UniqueSellingPoints) == ""
}

func (c CampaignInfo) withDefaults() CampaignInfo {
	return CampaignInfo{
		TargetRole:          orDefault(c.TargetRole, DefaultTargetRole),
		Industry:            orDefault(c.Industry, DefaultIndustry),
		CompanyValues:       orDefault(c.CompanyValues, DefaultCompanyValues),
		UniqueSellingPoints: orDefault(c.UniqueSellingPoints, DefaultUniqueSellingPoints),
	}
}

// Generator never returns an error: failures are reported inside the
// returned document (see model.SequenceDocument.Failed).
type Generator struct {
	oracle  contractx.Oracle
	prompts promptx.PromptSet
}

func NewGenerator(oracle contractx.Oracle, prompts promptx.PromptSet) (*Generator, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: oracle is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(prompts.Generate) == "" || strings.TrimSpace(prompts.Edit) == "" {
		return nil, fmt.Errorf("%w: generate and edit prompts are required", contractx.ErrPromptMissing)
	}
	return &Generator{oracle: oracle, prompts: prompts}, nil
}

func (g *Generator) Generate(ctx context.Context, info CampaignInfo) model.SequenceDocument {
	info = info.withDefaults()
	prompt, err := promptx.Render(ctx, g.prompts.Generate, map[string]any{
		"target_role":           info.TargetRole,
		"industry":              info.Industry,
		"company_values":        info.CompanyValues,
		"unique_selling_points": info.UniqueSellingPoints,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("render generate prompt")
		return failure(ErrGenerateText, "")
	}
	return g.complete(ctx, prompt, ErrGenerateText)
}

// Edit asks the oracle to rewrite doc according to instructions.
func (g *Generator) Edit(ctx context.Context, doc model.SequenceDocument, instructions string) model.SequenceDocument {
	current, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("marshal sequence for edit")
		return failure(ErrEditText, "")
	}
	prompt, err := promptx.Render(ctx, g.prompts.Edit, map[string]any{
		"sequence":     string(current),
		"instructions": instructions,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("render edit prompt")
		return failure(ErrEditText, "")
	}
	return g.complete(ctx, prompt, ErrEditText)
}

func (g *Generator) complete(ctx context.Context, prompt, errText string) model.SequenceDocument {
	raw, err := g.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("sequence oracle call failed")
		return failure(errText, raw)
	}

	var doc model.SequenceDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		log.Ctx(ctx).Warn().Str("raw", truncate(raw, 200)).Msg("sequence reply is not a JSON object")
		return failure(errText, raw)
	}
	return doc
}

func failure(errText, raw string) model.SequenceDocument {
	return model.SequenceDocument{
		"error":        errText,
		"raw_response": raw,
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
