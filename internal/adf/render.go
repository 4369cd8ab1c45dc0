// Package adf renders Atlassian Document Format trees to a restricted HTML
// subset, extracting chat and design-tool links as structured side-channel
// data instead of inline markup.
package adf

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Node is one node in the document tree. Version is only present on the
// root document node.
type Node struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is a text formatting mark.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Link is an extracted side-channel link.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Result is the output of rendering one document.
type Result struct {
	HTML        string `json:"html"`
	ChatLink    string `json:"chatLink,omitempty"`
	DesignLinks []Link `json:"designLinks"`
}

// Hosts recognized during rendering. The chat and design domains are pulled
// out of the HTML entirely; the analytics domain gets a numbered label.
const (
	chatDomain      = "lmwn.slack.com"
	designDomain    = "figma.com"
	analyticsDomain = "lmwn-redash.linecorp.com/queries/"
	docHost         = "docs.google.com/document"
	sheetHost       = "docs.google.com/spreadsheets"
)

var (
	designNameRe   = regexp.MustCompile(`/(?:design|file)/[^/]+/([^/?]+)`)
	analyticsIDRe  = regexp.MustCompile(`queries/(\d+)`)
	dashUnderscore = strings.NewReplacer("-", " ", "_", " ")
)

// Render converts a document tree to HTML. A nil or empty document renders
// to empty outputs, never an error.
func Render(doc *Node) Result {
	r := &renderer{}
	if doc == nil || len(doc.Content) == 0 {
		return Result{DesignLinks: []Link{}}
	}
	var b strings.Builder
	for _, child := range doc.Content {
		b.WriteString(r.renderNode(child))
	}
	links := r.designLinks
	if links == nil {
		links = []Link{}
	}
	return Result{
		HTML:        b.String(),
		ChatLink:    r.chatLink,
		DesignLinks: links,
	}
}

type renderer struct {
	chatLink    string
	designLinks []Link
}

func (r *renderer) renderNode(node Node) string {
	switch node.Type {
	case "doc":
		return r.renderContent(node.Content)
	case "paragraph":
		content := r.renderContent(node.Content)
		if strings.TrimSpace(content) == "" {
			return ""
		}
		return fmt.Sprintf("<p>%s</p>", content)
	case "inlineCard":
		return r.renderInlineCard(node)
	case "text":
		return r.renderText(node)
	default:
		// Unknown node type, render content if any
		return r.renderContent(node.Content)
	}
}

func (r *renderer) renderContent(content []Node) string {
	var b strings.Builder
	for _, child := range content {
		b.WriteString(r.renderNode(child))
	}
	return b.String()
}

func (r *renderer) renderInlineCard(node Node) string {
	rawURL, _ := node.Attrs["url"].(string)
	href := html.EscapeString(rawURL)
	label, icon := "Linked Document", "🔗"
	if strings.Contains(href, docHost) {
		label, icon = "Document", "📄"
	} else if strings.Contains(href, sheetHost) {
		label, icon = "Sheet", "📊"
	}
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s %s</a>`, href, icon, label)
}

func (r *renderer) renderText(node Node) string {
	text := html.EscapeString(node.Text)
	for _, mark := range node.Marks {
		if mark.Type != "link" {
			continue
		}
		rawHref, _ := mark.Attrs["href"].(string)
		href := html.EscapeString(rawHref)

		if strings.Contains(href, chatDomain) {
			// First chat link wins; later ones are dropped from the HTML
			if r.chatLink == "" {
				r.chatLink = href
			}
			return ""
		}
		if strings.Contains(href, designDomain) {
			r.designLinks = append(r.designLinks, Link{Href: href, Text: r.designLinkName(href, text)})
			return ""
		}
		if strings.Contains(href, analyticsDomain) {
			queryID := "unknown"
			if m := analyticsIDRe.FindStringSubmatch(href); m != nil {
				queryID = m[1]
			}
			return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">redash #%s</a>`, href, queryID)
		}
		return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, href, text)
	}
	return text
}

// designLinkName derives a human-readable name from the URL path segment,
// falling back to the visible text, then a numbered placeholder.
func (r *renderer) designLinkName(href, visible string) string {
	if m := designNameRe.FindStringSubmatch(href); m != nil {
		name := m[1]
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
		return dashUnderscore.Replace(name)
	}
	if visible != "" {
		return visible
	}
	return fmt.Sprintf("Design File #%d", len(r.designLinks)+1)
}

// CommentDoc wraps plain text in a minimal document tree, the shape the
// tracker's comment endpoint expects.
func CommentDoc(text string) *Node {
	return &Node{
		Type:    "doc",
		Version: 1,
		Content: []Node{
			{
				Type: "paragraph",
				Content: []Node{
					{Type: "text", Text: text},
				},
			},
		},
	}
}
