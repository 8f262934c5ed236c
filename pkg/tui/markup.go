package tui

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/gouthamve/bookfetch/pkg/view"
)

// Markup renders a view tree as tview color-tagged text.
func Markup(n view.Node) string {
	var lines []string
	collectMarkup(&lines, n)
	return strings.Join(lines, "\n")
}

func collectMarkup(lines *[]string, n view.Node) {
	text := tview.Escape(n.Text)

	switch n.Kind {
	case view.Container:
		for _, child := range n.Children {
			collectMarkup(lines, child)
		}
	case view.Image:
		if n.Class == "App-logo" {
			*lines = append(*lines, "[#61dafb::b]( bookfetch )[-:-:-]", "")
			return
		}
		*lines = append(*lines, "[gray]"+text+": "+tview.Escape(n.Src)+"[-]")
	case view.Heading:
		*lines = append(*lines, "[white::b]"+text+"[-:-:-]")
	case view.Link:
		*lines = append(*lines, "[#61dafb::u]"+text+"[-:-:-] "+tview.Escape(n.Href))
	case view.Alert:
		*lines = append(*lines, "[red::b]"+text+"[-:-:-]")
	default:
		if text != "" {
			*lines = append(*lines, text)
		}
	}
}
