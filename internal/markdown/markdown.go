// Package markdown renders announcement bodies to HTML.
package markdown

import (
	"bytes"
	gohtml "html"
	"io"
	"net/url"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const extensions = parser.CommonExtensions | parser.AutoHeadingIDs | parser.HardLineBreak

const flags = html.CommonFlags | html.HrefTargetBlank | html.SkipHTML |
	html.Safelink | html.NofollowLinks | html.NoreferrerLinks

// ToHTML renders md. Raw HTML in the source is dropped, links open in a new
// tab and links to anything but web, mail, phone or relative targets are
// rendered as plain text.
func ToHTML(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	// parsers keep state between documents
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: flags, RenderNodeHook: renderHook})
	renderer.IsSafeURLOverride = SafeURL
	normalized := markdown.NormalizeNewlines([]byte(md))
	return strings.TrimSpace(string(markdown.ToHTML(normalized, p, renderer)))
}

// SafeURL reports whether dest may be used as a link target. The check runs
// on the entity-decoded form since that is what ends up in the href.
func SafeURL(dest []byte) bool {
	raw := strings.TrimSpace(gohtml.UnescapeString(string(dest)))
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	}
	return false
}

// renderHook drops hard breaks that end a block, so list items do not carry
// a trailing <br>
func renderHook(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if br, ok := node.(*ast.Hardbreak); ok && endsBlock(br) {
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

func endsBlock(node ast.Node) bool {
	parent := node.GetParent()
	if parent == nil {
		return false
	}
	after := false
	for _, sibling := range parent.GetChildren() {
		if sibling == node {
			after = true
			continue
		}
		if !after {
			continue
		}
		text, ok := sibling.(*ast.Text)
		if !ok || len(bytes.TrimSpace(text.Literal)) > 0 {
			return false
		}
	}
	return true
}
