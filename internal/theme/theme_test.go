package theme

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ThemeSuite struct {
	suite.Suite
}

func TestThemeSuite(t *testing.T) {
	suite.Run(t, new(ThemeSuite))
}

func (s *ThemeSuite) TestDeriveDefaults() {
	s.Run("nil brand yields the fixed default theme", func() {
		got := Derive(nil)
		s.Equal(defaultPrimary, got.Primary.Base)
		s.Equal(defaultSecondary, got.Secondary.Base)
		s.Empty(got.LogoURL)
		s.Equal(Default(), got)
	})

	s.Run("missing channels fall back independently", func() {
		got := Derive(&BrandTheme{PrimaryColor: "#112233"})
		s.Equal("#112233", got.Primary.Base)
		s.Equal(defaultSecondary, got.Secondary.Base)
	})

	s.Run("malformed hex is treated like a missing channel", func() {
		for _, bad := range []string{"red", "#12", "#12345", "#1234567", "#zzzzzz", ""} {
			got := Derive(&BrandTheme{PrimaryColor: bad, SecondaryColor: "#445566"})
			s.Equal(defaultPrimary, got.Primary.Base, "input %q", bad)
			s.Equal("#445566", got.Secondary.Base)
		}
	})

	s.Run("logo url passes through", func() {
		got := Derive(&BrandTheme{LogoURL: "https://cdn.example.org/logo.png"})
		s.Equal("https://cdn.example.org/logo.png", got.LogoURL)
	})
}

func (s *ThemeSuite) TestDeterminism() {
	brand := &BrandTheme{PrimaryColor: "#A1B2C3", SecondaryColor: "#0F0F0F", LogoURL: "x"}
	s.Equal(Derive(brand), Derive(brand))
	s.Equal(Derive(nil), Derive(nil))
}

func (s *ThemeSuite) TestVariants() {
	s.Run("lighten adds the rounded blend per channel", func() {
		// 0x10 + round(255*0.35) = 16 + 89 = 105 = 0x69
		s.Equal("#696969", Lighten("#101010", 0.35))
	})

	s.Run("darken subtracts the rounded blend per channel", func() {
		// 0x80 - round(255*0.20) = 128 - 51 = 77 = 0x4d
		s.Equal("#4d4d4d", Darken("#808080", 0.20))
	})

	s.Run("clamps at the channel bounds", func() {
		s.Equal("#ffffff", Lighten("#f0f0f0", 1.0))
		s.Equal("#000000", Darken("#101010", 1.0))
	})

	s.Run("malformed input passes through unchanged", func() {
		s.Equal("nope", Lighten("nope", 0.5))
	})
}

func (s *ThemeSuite) TestVariantChannelBounds() {
	// Property: for any channel value and blend, shifted channels stay in
	// [0,255] and match the min/max formulas exactly.
	for v := 0; v <= 255; v += 15 {
		for _, a := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1} {
			base := fmt.Sprintf("#%02x%02x%02x", v, v, v)
			delta := int(math.Round(255 * a))

			wantLight := v + delta
			if wantLight > 255 {
				wantLight = 255
			}
			wantDark := v - delta
			if wantDark < 0 {
				wantDark = 0
			}

			s.Equal(fmt.Sprintf("#%02x%02x%02x", wantLight, wantLight, wantLight), Lighten(base, a),
				"lighten v=%d a=%f", v, a)
			s.Equal(fmt.Sprintf("#%02x%02x%02x", wantDark, wantDark, wantDark), Darken(base, a),
				"darken v=%d a=%f", v, a)
		}
	}
}
