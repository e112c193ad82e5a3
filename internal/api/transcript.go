package api

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

// renderTextTranscript produces a plain-text download of the conversation.
func renderTextTranscript(sess *session.Session) string {
	var sb strings.Builder
	sb.WriteString("Chat transcript\n")
	sb.WriteString("Exported: " + time.Now().Format("2006-01-02 15:04") + "\n")
	if names := documentNames(sess); len(names) > 0 {
		sb.WriteString("Documents: " + strings.Join(names, ", ") + "\n")
	}
	for _, turn := range sess.History() {
		sb.WriteString("\n")
		sb.WriteString(speakerLabel(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

const transcriptStyle = `body{font-family:sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem;color:#222}
h1{font-size:1.4rem}h2{font-size:1rem;margin-bottom:.25rem}
.meta{color:#666;font-size:.85rem}
.turn{margin:1rem 0;padding:.75rem 1rem;border-radius:.5rem}
.turn.user{background:#eef3fb}.turn.assistant{background:#f6f6f6}`

// renderHTMLTranscript produces an HTML download. Assistant turns are
// markdown-rendered and sanitized; user turns are escaped verbatim.
func renderHTMLTranscript(sess *session.Session) string {
	var sb strings.Builder
	sb.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Chat transcript</title>\n")
	sb.WriteString("<style>" + transcriptStyle + "</style>\n</head>\n<body>\n")
	sb.WriteString("<h1>Chat transcript</h1>\n")
	sb.WriteString(fmt.Sprintf("<p class=\"meta\">Exported %s</p>\n", time.Now().Format("2006-01-02 15:04")))
	if names := documentNames(sess); len(names) > 0 {
		sb.WriteString("<p class=\"meta\">Documents: " + html.EscapeString(strings.Join(names, ", ")) + "</p>\n")
	}
	for _, turn := range sess.History() {
		if turn.Role == answer.RoleAssistant {
			sb.WriteString("<section class=\"turn assistant\">\n<h2>Assistant</h2>\n")
			sb.WriteString(markdownToHTML(turn.Content))
		} else {
			sb.WriteString("<section class=\"turn user\">\n<h2>You</h2>\n")
			sb.WriteString("<p>" + html.EscapeString(turn.Content) + "</p>\n")
		}
		sb.WriteString("</section>\n")
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

func documentNames(sess *session.Session) []string {
	docs := sess.DocumentList()
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names
}

func speakerLabel(role answer.Role) string {
	if role == answer.RoleAssistant {
		return "Assistant"
	}
	return "You"
}

// markdownToHTML renders one model answer for the transcript. Model output
// is untrusted, so the rendered fragment is sanitized before embedding.
func markdownToHTML(src string) string {
	var buf bytes.Buffer
	md := goldmark.New()
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>\n"
	}
	return sanitizeFragment(buf.String())
}

var droppedTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"form":   true,
	"link":   true,
	"meta":   true,
}

// sanitizeFragment strips active content from an HTML fragment: dropped
// elements, event-handler attributes, and javascript: URLs.
func sanitizeFragment(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return html.EscapeString(fragment)
	}
	body := findBody(doc)
	if body == nil {
		return ""
	}
	cleanNode(body)

	var buf strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return html.EscapeString(fragment)
		}
	}
	return buf.String()
}

func cleanNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && droppedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			cleanAttrs(c)
			cleanNode(c)
		}
		c = next
	}
}

func cleanAttrs(n *html.Node) {
	if n.Type != html.ElementNode || len(n.Attr) == 0 {
		return
	}
	kept := make([]html.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if (key == "href" || key == "src") && strings.HasPrefix(strings.TrimSpace(strings.ToLower(a.Val)), "javascript:") {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
