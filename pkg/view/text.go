package view

import "strings"

// Text renders a view tree for a terminal.
func Text(n Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeText(sb *strings.Builder, n Node) {
	switch n.Kind {
	case Container:
		for _, child := range n.Children {
			writeText(sb, child)
		}
	case Image:
		if n.Class == "App-logo" {
			return
		}
		sb.WriteString("[" + n.Text + "] " + n.Src + "\n")
	case Heading:
		sb.WriteString(n.Text + "\n")
		sb.WriteString(strings.Repeat("=", len([]rune(n.Text))) + "\n")
	case Link:
		sb.WriteString(n.Text + " <" + n.Href + ">\n")
	case Alert:
		sb.WriteString("error: " + n.Text + "\n")
	default:
		if n.Text != "" {
			sb.WriteString(n.Text + "\n")
		}
	}
}
