package agent

import (
	"encoding/json"
	"strings"
)

// The agent emits one JSON object per stdout line, but the schema is not
// uniform: older and newer protocol versions coexist, and no single
// discriminant field can be trusted across all of them. Lines are therefore
// classified by structural predicates, in a fixed priority order:
//
//  1. streaming text delta:   delta.text present
//  2. content block stop:     type == "content_block_stop"
//  3. full assistant message: message.content array present
//  4. final result:           type == "result" with a result string
//  5. anything else:          literal passthrough (covers non-JSON lines)
//
// The priority order matters because shapes overlap: a delta line also
// carries a type field, and assistant messages from some versions carry
// top-level usage. First match wins.

// Usage holds the token counts reported on assistant and result events.
// Totals are measured against a single default context window; per-model
// window sizes are not worth the bookkeeping at this layer.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// Total returns the combined token count across all four categories.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
}

// eventKind tags the classified shape of one stdout line.
type eventKind int

const (
	eventTextDelta eventKind = iota
	eventBlockStop
	eventAssistant
	eventResult
	eventLiteral
)

// event is the classified form of one complete stdout line.
type event struct {
	kind      eventKind
	text      string
	usage     *Usage
	sessionID string
}

// contentBlock is one element of an assistant message's content array.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// streamLine is the field superset across every known protocol shape. A
// parsed line matches whichever predicate fires first against these fields.
type streamLine struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Delta     *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Message *struct {
		Content []contentBlock `json:"content"`
		Usage   *Usage         `json:"usage"`
	} `json:"message"`
	Result string `json:"result"`
	Usage  *Usage `json:"usage"`
}

// resultPreviewLen bounds how much of the final result event is surfaced.
const resultPreviewLen = 200

// classifyLine parses one complete line into an event per the priority order
// documented above. Lines that parse as JSON but match no known shape, and
// lines that are not JSON at all, both come back as literal text.
func classifyLine(line string) event {
	var parsed streamLine
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		return event{kind: eventLiteral, text: line}
	}

	switch {
	case parsed.Delta != nil && parsed.Delta.Text != "":
		return event{kind: eventTextDelta, text: parsed.Delta.Text}

	case parsed.Type == "content_block_stop":
		return event{kind: eventBlockStop}

	case parsed.Message != nil && parsed.Message.Content != nil:
		var texts []string
		for _, block := range parsed.Message.Content {
			if block.Type == "text" && block.Text != "" {
				texts = append(texts, block.Text)
			}
		}
		return event{
			kind:      eventAssistant,
			text:      strings.Join(texts, "\n"),
			usage:     parsed.Message.Usage,
			sessionID: parsed.SessionID,
		}

	case parsed.Type == "result":
		preview := parsed.Result
		if len(preview) > resultPreviewLen {
			preview = preview[:resultPreviewLen] + "..."
		}
		return event{
			kind:      eventResult,
			text:      preview,
			usage:     parsed.Usage,
			sessionID: parsed.SessionID,
		}

	default:
		return event{kind: eventLiteral, text: line}
	}
}
