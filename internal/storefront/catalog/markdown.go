package catalog

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	descriptionMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify))
	descriptionPolicy   = newDescriptionPolicy()
	commentPolicy       = bluemonday.StrictPolicy()
)

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// RenderDescription converts admin-authored markdown to sanitized HTML. Text that
// fails to convert is escaped and returned as a single paragraph.
func RenderDescription(source string) template.HTML {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(source) + "</p>")
	}
	return template.HTML(descriptionPolicy.SanitizeBytes(buf.Bytes()))
}

// SanitizeComment strips all markup from a review comment.
func SanitizeComment(comment string) string {
	return strings.TrimSpace(commentPolicy.Sanitize(comment))
}
