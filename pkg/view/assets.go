package view

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const logoSize = 96

// Assets are the static resources the view needs. They are loaded once at
// startup and passed to Render and the presenters.
type Assets struct {
	LogoPath string
	Logo     image.Image

	Tagline  string
	LinkText string
	LinkHref string
}

func DefaultAssets() Assets {
	return Assets{
		Tagline:  "Scan or type an ISBN to look up a book.",
		LinkText: "Browse Open Library",
		LinkHref: "https://openlibrary.org",
	}
}

// LoadAssets returns DefaultAssets with the logo at logoPath decoded and
// scaled down. An empty logoPath leaves the logo out.
func LoadAssets(logoPath string) (Assets, error) {
	a := DefaultAssets()
	if logoPath == "" {
		return a, nil
	}

	img, err := imaging.Open(logoPath)
	if err != nil {
		return a, fmt.Errorf("cannot open logo: %w", err)
	}

	a.LogoPath = logoPath
	a.Logo = imaging.Fit(img, logoSize, logoSize, imaging.Lanczos)
	return a, nil
}
