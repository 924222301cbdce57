package router

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/knowledgebae/knowledge-bae-mcp/mcp"
)

// Text builds a text content item.
func Text(s string) mcp.ContentBlock {
	return mcp.ContentBlock{Type: mcp.ContentTypeText, Text: s}
}

// Blob builds a binary content item. Audio mime types produce an audio block,
// everything else an image block.
func Blob(data []byte, mimeType string) mcp.ContentBlock {
	typ := mcp.ContentTypeImage
	if strings.HasPrefix(mimeType, "audio/") {
		typ = mcp.ContentTypeAudio
	}
	return mcp.ContentBlock{
		Type:     typ,
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}

// Structured encodes v as JSON and returns it as a text content item.
func Structured(v any) (mcp.ContentBlock, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.ContentBlock{}, err
	}
	return mcp.ContentBlock{Type: mcp.ContentTypeText, Text: string(b), MimeType: "application/json"}, nil
}
