// Package memory rebuilds the per-request conversation memory from stored turns.
package memory

import (
	"strings"

	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	humanPrefix = "Human: "
	aiPrefix    = "AI: "
)

type Message struct {
	Role    string
	Content string
}

// Memory is a read-only view of prior turns. It is rebuilt for every request
// and never shared between requests.
type Memory struct {
	messages []Message
}

// Replay converts stored turns into memory, preserving roles. Structured
// assistant content is replayed as its JSON text.
func Replay(turns []model.Turn) Memory {
	messages := make([]Message, 0, len(turns))
	for _, t := range turns {
		role := model.RoleAssistant
		if t.Role == model.RoleUser {
			role = model.RoleUser
		}
		messages = append(messages, Message{Role: role, Content: t.Text()})
	}
	return Memory{messages: messages}
}

// With returns a copy of m with one more message appended.
func (m Memory) With(role, content string) Memory {
	messages := make([]Message, len(m.messages), len(m.messages)+1)
	copy(messages, m.messages)
	messages = append(messages, Message{Role: role, Content: content})
	return Memory{messages: messages}
}

func (m Memory) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m Memory) Len() int {
	return len(m.messages)
}

// String renders the buffer as "Human: ..." / "AI: ..." lines.
func (m Memory) String() string {
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.Role == model.RoleUser {
			b.WriteString(humanPrefix)
		} else {
			b.WriteString(aiPrefix)
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}
