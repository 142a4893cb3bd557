package compose

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parsePage(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return root
}

func findOne(t *testing.T, root *html.Node, selector string) *html.Node {
	t.Helper()
	nodes := goquery.NewDocumentFromNode(root).Find(selector).Nodes
	require.NotEmpty(t, nodes, "selector %q matched nothing", selector)
	return nodes[0]
}

const composeMarkup = `<html><body>
<div role="dialog">
	<div role="toolbar"></div>
	<input name="subjectbox" value="Quarterly numbers">
	<div aria-label="Message Body" contenteditable="true">Draft text</div>
	<div role="button" data-tooltip="Send (Ctrl-Enter)">Send</div>
	<span email="a@x.com">Alice</span>
	<span email="b@y.com">Bob</span>
	<span email="a@x.com">Alice again</span>
</div>
</body></html>`

func TestLocator_Surfaces(t *testing.T) {
	root := parsePage(t, composeMarkup)
	locator := NewLocator(DefaultChains())

	surfaces := locator.Surfaces(root)

	require.Len(t, surfaces, 1)
	assert.Equal(t, "dialog", nodeAttr(surfaces[0], "role"))
}

func TestLocator_Locate_SelectorChains(t *testing.T) {
	root := parsePage(t, composeMarkup)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	elements := locator.Locate(surface)

	require.NotNil(t, elements.Body)
	assert.Equal(t, "Message Body", nodeAttr(elements.Body, "aria-label"))
	require.NotNil(t, elements.Subject)
	assert.Equal(t, "Quarterly numbers", nodeAttr(elements.Subject, "value"))
	require.NotNil(t, elements.SendControl)
	require.NotNil(t, elements.Toolbar)
	assert.Len(t, elements.RecipientChips, 3)
}

func TestLocator_Locate_BodyHeuristicFallback(t *testing.T) {
	// No attribute selector matches either editable; the heavier text
	// subtree wins.
	root := parsePage(t, `<html><body><div role="dialog">
		<div contenteditable="true">hi</div>
		<div contenteditable="true">a considerably longer draft body</div>
	</div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	elements := locator.Locate(surface)

	require.NotNil(t, elements.Body)
	assert.Equal(t, "a considerably longer draft body", nodeText(elements.Body))
}

func TestLocator_Locate_SendButtonHeuristicFallback(t *testing.T) {
	root := parsePage(t, `<html><body><div role="dialog">
		<div aria-label="Message Body" contenteditable="true"></div>
		<button>Discard</button>
		<button>Send now</button>
	</div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	elements := locator.Locate(surface)

	require.NotNil(t, elements.SendControl)
	assert.Equal(t, "Send now", nodeText(elements.SendControl))
}

func TestLocator_Locate_MissingBody(t *testing.T) {
	root := parsePage(t, `<html><body><div role="dialog"><p>not a compose window</p></div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	elements := locator.Locate(surface)

	assert.Nil(t, elements.Body)
}

func TestLocator_Recipients_DedupAndInputUnion(t *testing.T) {
	root := parsePage(t, `<html><body><div role="dialog">
		<span email="a@x.com">Alice</span>
		<span email="a@x.com">Alice duplicate</span>
		<div data-hovercard-id="c@z.com">Carol</div>
		<textarea name="to">d@w.com</textarea>
	</div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	recipients := locator.Recipients(surface)

	assert.ElementsMatch(t, []string{"a@x.com", "c@z.com", "d@w.com"}, recipients)
}

func TestLocator_Recipients_InputWithoutAtIgnored(t *testing.T) {
	root := parsePage(t, `<html><body><div role="dialog">
		<span email="a@x.com">Alice</span>
		<textarea name="to">still typing</textarea>
	</div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	recipients := locator.Recipients(surface)

	assert.Equal(t, []string{"a@x.com"}, recipients)
}

func TestLocator_Recipients_Empty(t *testing.T) {
	root := parsePage(t, `<html><body><div role="dialog"></div></body></html>`)
	locator := NewLocator(DefaultChains())
	surface := findOne(t, root, `div[role="dialog"]`)

	assert.Empty(t, locator.Recipients(surface))
}
