package mcpapi

import "github.com/dohr-michael/agentbus/internal/store"

// contentBlock mirrors the shape spec.md §9's content polymorphism note
// describes: {type:"text",text:…} or {type:"image",data:…,mimeType:…}.
// internal/store only ever persists the flattened text form (see
// internal/store/content.go); this reconstructs a block array from it for
// callers that asked for structured content, folding metadata.images back
// in as image blocks.
type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

func toContentBlocks(m store.Message) []contentBlock {
	var blocks []contentBlock
	if m.Content != "" {
		blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
	}

	images, _ := m.Metadata["images"].([]any)
	for _, raw := range images {
		img, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url, _ := img["url"].(string)
		blocks = append(blocks, contentBlock{Type: "image", Data: url})
	}
	return blocks
}

// messageWithBlocks is the msg_list response shape when as_blocks=true.
type messageWithBlocks struct {
	store.Message
	Content any `json:"content"` // overrides store.Message.Content's string with []contentBlock
}

func toMessagesWithBlocks(msgs []store.Message) []messageWithBlocks {
	out := make([]messageWithBlocks, len(msgs))
	for i, m := range msgs {
		out[i] = messageWithBlocks{Message: m, Content: toContentBlocks(m)}
	}
	return out
}
