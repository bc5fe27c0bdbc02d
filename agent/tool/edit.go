package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	editMessage       = "Updated sequence..."
	editGuidanceText  = "To edit an existing sequence, please provide the sequence ID (e.g., 'Edit sequence ID 123') or campaign ID (e.g., 'Edit sequence for campaign 456')."
	editErrorTemplate = "Error editing sequence: %v"
)

type editTool struct {
	generator SequenceGenerator
	sequences contractx.SequenceStore
}

func (t *editTool) Info() *schema.ToolInfo {
	return inputInfo(
		contractx.ToolEditSequence,
		"IMPORTANT: Use this tool for ANY request to edit, modify, change, update, revise, improve, or customize an existing outreach sequence.",
		"The edit instructions, including the sequence id or campaign_id when known",
	)
}

// Run resolves the target as: explicit sequence id, explicit campaign id,
// campaign id from memory. The latest version of a campaign is edited when
// no sequence id is given.
func (t *editTool) Run(ctx context.Context, call Call) (string, error) {
	var (
		current  *model.OutreachSequence
		err      error
		notFound string
	)

	if sequenceID := ExtractSequenceID(call.Input); sequenceID > 0 {
		current, err = t.sequences.GetSequence(ctx, sequenceID)
		notFound = fmt.Sprintf("Error: Sequence with ID %d was not found.", sequenceID)
	} else {
		campaignID := ExtractCampaignID(call.Input)
		if campaignID == 0 {
			campaignID = CampaignIDFromMemory(call.Memory)
		}
		if campaignID == 0 {
			return editFailure(editGuidanceText), nil
		}
		current, err = t.sequences.LatestSequence(ctx, campaignID)
		notFound = fmt.Sprintf("Error: No sequences found for campaign ID %d.", campaignID)
	}

	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return editFailure(notFound), nil
		}
		log.Ctx(ctx).Error().Err(err).Msg("load sequence for edit")
		return editFailure(fmt.Sprintf(editErrorTemplate, err)), nil
	}

	edited := t.generator.Edit(ctx, current.SequenceData, call.Input)
	next := &model.OutreachSequence{
		CampaignID:   current.CampaignID,
		SequenceData: edited,
		Version:      current.Version + 1,
	}
	if err := t.sequences.CreateSequence(ctx, next); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("campaign_id", current.CampaignID).Msg("save edited sequence")
		return editFailure(fmt.Sprintf(editErrorTemplate, err)), nil
	}

	output, err := json.MarshalIndent(edited, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal edited sequence: %w", err)
	}
	campaignID, sequenceID := next.CampaignID, next.ID
	return parserx.FinalAnswer(contractx.Envelope{
		Output:     string(output),
		ActionTool: contractx.ToolEditSequence,
		Message:    fmt.Sprintf("%s (Campaign ID: %d) (ID: %d)", editMessage, campaignID, sequenceID),
		CampaignID: &campaignID,
		SequenceID: &sequenceID,
	}), nil
}

func editFailure(message string) string {
	return parserx.FinalAnswer(contractx.Envelope{
		ActionTool: contractx.ToolEditSequence,
		Message:    message,
		Error:      true,
	})
}
