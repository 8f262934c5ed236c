package view

import (
	"fmt"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	cardWidth   = 600
	cardHeight  = 800
	cardMargin  = 32.0
	lineSpacing = 1.4
)

type faces struct {
	heading font.Face
	body    font.Face
}

var loadFaces = sync.OnceValues(func() (faces, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return faces{}, fmt.Errorf("cannot parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return faces{}, fmt.Errorf("cannot parse bold font: %w", err)
	}

	return faces{
		heading: truetype.NewFace(bold, &truetype.Options{Size: 28}),
		body:    truetype.NewFace(regular, &truetype.Options{Size: 16}),
	}, nil
})

// WritePNG draws the view tree as a card image and writes it as PNG.
func WritePNG(w io.Writer, n Node, a Assets) error {
	f, err := loadFaces()
	if err != nil {
		return err
	}

	dc := gg.NewContext(cardWidth, cardHeight)
	dc.SetHexColor("#282c34")
	dc.Clear()

	c := &card{dc: dc, faces: f, assets: a, y: cardMargin}
	c.draw(n)

	return dc.EncodePNG(w)
}

type card struct {
	dc     *gg.Context
	faces  faces
	assets Assets
	y      float64
}

func (c *card) draw(n Node) {
	switch n.Kind {
	case Container:
		for _, child := range n.Children {
			c.draw(child)
		}
	case Image:
		if n.Class == "App-logo" {
			c.drawLogo()
		}
	case Heading:
		c.text(n.Text, c.faces.heading, "#ffffff")
	case Link:
		c.text(n.Text, c.faces.body, "#61dafb")
	case Alert:
		c.text(n.Text, c.faces.body, "#ff6b6b")
	default:
		c.text(n.Text, c.faces.body, "#d0d4dc")
	}
}

func (c *card) drawLogo() {
	if c.assets.Logo != nil {
		b := c.assets.Logo.Bounds()
		c.dc.DrawImageAnchored(c.assets.Logo, cardWidth/2, int(c.y)+b.Dy()/2, 0.5, 0.5)
		c.y += float64(b.Dy()) + cardMargin/2
		return
	}

	r := float64(logoSize) / 2
	c.dc.SetHexColor("#61dafb")
	c.dc.DrawCircle(cardWidth/2, c.y+r, r)
	c.dc.Fill()
	c.y += 2*r + cardMargin/2
}

func (c *card) text(s string, face font.Face, color string) {
	if s == "" || c.y >= cardHeight-cardMargin {
		return
	}

	width := cardWidth - 2*cardMargin
	c.dc.SetFontFace(face)
	c.dc.SetHexColor(color)

	lines := c.dc.WordWrap(s, width)
	c.dc.DrawStringWrapped(s, cardMargin, c.y, 0, 0, width, lineSpacing, gg.AlignCenter)
	c.y += float64(len(lines))*c.dc.FontHeight()*lineSpacing + cardMargin/4
}
