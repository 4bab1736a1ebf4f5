package tenant

import (
	"github.com/google/uuid"

	"seva/internal/theme"
)

// Mode is the presentation mode of the storefront. Exactly one mode is
// active per session.
type Mode string

const (
	ModeMarketplace Mode = "MARKETPLACE"
	ModeMicrosite   Mode = "MICROSITE"
)

// Tenant is the NGO operating a microsite. Immutable once resolved for a
// session; refetched only on a new host resolution.
type Tenant struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Brand        *theme.BrandTheme `json:"theme,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	Website      string            `json:"website,omitempty"`
}

// Resolution is the settled outcome of classifying a host: which mode the
// session runs in, the tenant when in microsite mode, and the theme the view
// layer should render with.
type Resolution struct {
	Mode   Mode
	Tenant *Tenant
	Theme  theme.Theme
}

// Marketplace is the fail-open resolution: shared marketplace, no tenant,
// default theme.
func Marketplace() Resolution {
	return Resolution{Mode: ModeMarketplace, Tenant: nil, Theme: theme.Default()}
}
