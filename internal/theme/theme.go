// Package theme derives a complete visual theme from a tenant's optional
// brand colors. Everything here is pure: no I/O, no mutable state, and the
// same input always yields the same output.
package theme

import (
	"fmt"
	"math"
	"strings"
)

// BrandTheme is the optional branding a tenant carries. Missing or
// malformed channels fall back to the platform defaults.
type BrandTheme struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// Variant is a base color with programmatically shifted light and dark
// companions.
type Variant struct {
	Base  string
	Light string
	Dark  string
}

// Theme is the full visual theme consumed by the view layer.
type Theme struct {
	Primary   Variant
	Secondary Variant
	LogoURL   string
}

const (
	defaultPrimary   = "#2e7d32"
	defaultSecondary = "#00695c"

	// Blend amounts for the light/dark variants. The shift is a linear
	// per-channel offset, not perceptual lightening; it is deliberately
	// simple and deterministic rather than colorimetrically accurate.
	lightBlend = 0.35
	darkBlend  = 0.20
)

// Default returns the fixed marketplace theme.
func Default() Theme {
	return Derive(nil)
}

// Derive maps an optional brand onto a complete theme. A nil brand yields
// the default theme; a missing or malformed color channel falls back to the
// matching default while the other channel is still honored.
func Derive(brand *BrandTheme) Theme {
	primary := defaultPrimary
	secondary := defaultSecondary
	logo := ""
	if brand != nil {
		if _, _, _, ok := parseHex(brand.PrimaryColor); ok {
			primary = normalizeHex(brand.PrimaryColor)
		}
		if _, _, _, ok := parseHex(brand.SecondaryColor); ok {
			secondary = normalizeHex(brand.SecondaryColor)
		}
		logo = brand.LogoURL
	}
	return Theme{
		Primary:   variant(primary),
		Secondary: variant(secondary),
		LogoURL:   logo,
	}
}

func variant(base string) Variant {
	return Variant{
		Base:  base,
		Light: Lighten(base, lightBlend),
		Dark:  Darken(base, darkBlend),
	}
}

// Lighten adds round(255*amount) to each RGB channel, clamped to 255.
func Lighten(hex string, amount float64) string {
	return shift(hex, int(math.Round(255*amount)))
}

// Darken subtracts round(255*amount) from each RGB channel, clamped to 0.
func Darken(hex string, amount float64) string {
	return shift(hex, -int(math.Round(255*amount)))
}

func shift(hex string, delta int) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(r+delta), clamp(g+delta), clamp(b+delta))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// parseHex accepts #rrggbb (case-insensitive, leading # optional).
func parseHex(hex string) (r, g, b int, ok bool) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(strings.ToLower(h), "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, false
	}
	return rv, gv, bv, true
}

func normalizeHex(hex string) string {
	h := strings.ToLower(strings.TrimSpace(hex))
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	return h
}
