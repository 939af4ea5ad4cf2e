package schema

import "strings"

// ExtractDocument pulls the JSON document out of a private message. Messages
// are markdown, so a document wrapped in a ``` fence (optionally tagged
// "json") is unwrapped; anything else is returned trimmed.
func ExtractDocument(content string) []byte {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "```")
	if start < 0 {
		return []byte(content)
	}
	body := content[start+3:]
	end := strings.Index(body, "```")
	if end >= 0 {
		body = body[:end]
	}
	// Drop a language tag on the opening fence line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[:nl])
		if tag != "" && !strings.HasPrefix(tag, "{") && !strings.HasPrefix(tag, "[") {
			body = body[nl+1:]
		}
	}
	return []byte(strings.TrimSpace(body))
}
