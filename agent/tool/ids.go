package tool

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	memoryx "github.com/tanpawarit/outreach-agent/agent/memory"
)

var (
	campaignIDPattern = regexp.MustCompile(`campaign(?:_id| id|ID)[: ]*(\d+)`)
	sequenceIDPattern = regexp.MustCompile(`sequence (?:id|ID)[: ]*(\d+)`)

	// Stored envelopes replay as JSON, hence the optional quote after the key.
	memoryContextPattern = regexp.MustCompile(`Working on campaign.*?campaign_id"?[: ]*(\d+)`)
	memoryAnyPattern     = regexp.MustCompile(`campaign_id"?[: ]*(\d+)`)
)

// ExtractCampaignID returns the first "campaign id: N" style reference in
// text, or 0.
func ExtractCampaignID(text string) int64 {
	return firstID(campaignIDPattern, text)
}

func ExtractSequenceID(text string) int64 {
	return firstID(sequenceIDPattern, text)
}

// CampaignIDFromMemory prefers an explicit campaign context line and then
// any campaign_id mention.
func CampaignIDFromMemory(mem memoryx.Memory) int64 {
	text := mem.String()
	if id := firstID(memoryContextPattern, text); id > 0 {
		return id
	}
	return firstID(memoryAnyPattern, text)
}

func firstID(re *regexp.Regexp, text string) int64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func idValue(v any) int64 {
	var id int64
	switch t := v.(type) {
	case float64:
		id = int64(t)
	case json.Number:
		id, _ = t.Int64()
	case string:
		id, _ = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	if id < 0 {
		return 0
	}
	return id
}
