package compose

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements are the sub-elements of one compose surface. Any field may be nil
// (or empty) when the corresponding element could not be located; callers
// decide what is fatal.
type Elements struct {
	Body           *html.Node
	Subject        *html.Node
	SendControl    *html.Node
	Toolbar        *html.Node
	RecipientChips []*html.Node
	RecipientInput *html.Node
}

// SelectorChains are the ordered attribute-selector chains tried per
// element, most specific first. The host markup is undocumented and drifts
// between versions, so the chains are data: extending coverage for a new
// markup shape means appending a selector here, not touching call sites.
type SelectorChains struct {
	Surface        []string
	Body           []string
	Subject        []string
	SendControl    []string
	Toolbar        []string
	RecipientChips []string
	RecipientInput []string
}

// DefaultChains covers the host markup shapes observed so far.
func DefaultChains() SelectorChains {
	return SelectorChains{
		Surface: []string{
			`div[role="dialog"]`,
			`div.compose-window`,
		},
		Body: []string{
			`div[aria-label="Message Body"]`,
			`div[g_editable="true"]`,
			`div[contenteditable="true"][role="textbox"]`,
		},
		Subject: []string{
			`input[name="subjectbox"]`,
			`input[aria-label="Subject"]`,
		},
		SendControl: []string{
			`div[role="button"][data-tooltip*="Send"]`,
			`div[role="button"][aria-label*="Send"]`,
		},
		Toolbar: []string{
			`div[role="toolbar"]`,
			`td.gU.Up`,
		},
		RecipientChips: []string{
			`div[data-hovercard-id*="@"]`,
			`span[email]`,
			`div[email]`,
		},
		RecipientInput: []string{
			`textarea[name="to"]`,
			`input[aria-label*="To"]`,
		},
	}
}

// Locator resolves compose sub-elements against the live tree: the selector
// chains first, then structural heuristics when every selector misses.
type Locator struct {
	chains SelectorChains
}

// NewLocator creates a Locator over the given chains
func NewLocator(chains SelectorChains) *Locator {
	return &Locator{chains: chains}
}

// Surfaces returns every candidate compose surface under root.
func (l *Locator) Surfaces(root *html.Node) []*html.Node {
	if root == nil {
		return nil
	}
	doc := goquery.NewDocumentFromNode(root)
	seen := make(map[*html.Node]bool)
	var surfaces []*html.Node
	for _, selector := range l.chains.Surface {
		for _, n := range doc.Find(selector).Nodes {
			if !seen[n] {
				seen[n] = true
				surfaces = append(surfaces, n)
			}
		}
	}
	// The inserted node may itself be the surface.
	if !seen[root] && l.matchesAny(root, l.chains.Surface) {
		surfaces = append(surfaces, root)
	}
	return surfaces
}

// Locate resolves the sub-elements of one surface. Missing elements come
// back nil; only the caller knows which ones disqualify the surface.
func (l *Locator) Locate(surface *html.Node) Elements {
	doc := goquery.NewDocumentFromNode(surface)
	elements := Elements{
		Body:           l.firstMatch(doc, l.chains.Body),
		Subject:        l.firstMatch(doc, l.chains.Subject),
		SendControl:    l.firstMatch(doc, l.chains.SendControl),
		Toolbar:        l.firstMatch(doc, l.chains.Toolbar),
		RecipientInput: l.firstMatch(doc, l.chains.RecipientInput),
	}
	for _, selector := range l.chains.RecipientChips {
		elements.RecipientChips = append(elements.RecipientChips, doc.Find(selector).Nodes...)
	}

	if elements.Body == nil {
		elements.Body = largestEditable(doc)
	}
	if elements.SendControl == nil {
		elements.SendControl = sendButtonByLabel(doc)
	}
	return elements
}

// Recipients extracts the recipient addresses of a surface: every element
// carrying an email-bearing attribute, deduplicated by exact string, unioned
// with the recipient input's plain-text value when it contains an "@".
func (l *Locator) Recipients(surface *html.Node) []string {
	elements := l.Locate(surface)
	seen := make(map[string]bool)
	var recipients []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		recipients = append(recipients, addr)
	}
	for _, chip := range elements.RecipientChips {
		if v := nodeAttr(chip, "email"); v != "" {
			add(v)
			continue
		}
		if v := nodeAttr(chip, "data-hovercard-id"); strings.Contains(v, "@") {
			add(v)
		}
	}
	if elements.RecipientInput != nil {
		value := nodeAttr(elements.RecipientInput, "value")
		if value == "" {
			value = nodeText(elements.RecipientInput)
		}
		if strings.Contains(value, "@") {
			add(value)
		}
	}
	return recipients
}

func (l *Locator) firstMatch(doc *goquery.Document, chain []string) *html.Node {
	for _, selector := range chain {
		if nodes := doc.Find(selector).Nodes; len(nodes) > 0 {
			return nodes[0]
		}
	}
	return nil
}

func (l *Locator) matchesAny(n *html.Node, chain []string) bool {
	if n.Type != html.ElementNode || n.Parent == nil {
		return false
	}
	doc := goquery.NewDocumentFromNode(n.Parent)
	for _, selector := range chain {
		for _, match := range doc.Find(selector).Nodes {
			if match == n {
				return true
			}
		}
	}
	return false
}

// largestEditable picks the contenteditable region with the heaviest text
// subtree. Rendered height is unavailable off-screen, so text weight stands
// in for it.
func largestEditable(doc *goquery.Document) *html.Node {
	var best *html.Node
	bestWeight := -1
	for _, n := range doc.Find(`[contenteditable="true"]`).Nodes {
		weight := len(nodeText(n))
		if weight > bestWeight {
			best = n
			bestWeight = weight
		}
	}
	return best
}

// sendButtonByLabel finds a button whose accessible label or visible text
// contains the send verb.
func sendButtonByLabel(doc *goquery.Document) *html.Node {
	for _, n := range doc.Find(`button, [role="button"]`).Nodes {
		label := nodeAttr(n, "aria-label")
		if label == "" {
			label = nodeText(n)
		}
		if strings.Contains(strings.ToLower(label), "send") {
			return n
		}
	}
	return nil
}

func nodeAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
