package pages

// Bundle markers on the first folder below the pages directory.
const (
	// BundleMarker prefixes a sub-bundle root folder (pages/@shop).
	BundleMarker = "@"

	// IndependentMarker prefixes an independent sub-bundle root folder (pages/@@gift).
	IndependentMarker = "@@"
)

// SubBundle is one sub-package declaration in the app config.
type SubBundle struct {
	// Root is the pages directory plus the marker folder (e.g., "pages/@shop").
	Root string `json:"root"`

	// Pages are the member page paths with Root stripped (e.g., "cart/page").
	Pages []string `json:"pages"`

	// Independent is true when the root folder starts with IndependentMarker.
	Independent bool `json:"independent,omitempty"`
}

// Collision records a name tree entry that was replaced by a later page.
type Collision struct {
	// Key is the dotted key path (e.g., "shop.orderList").
	Key string

	// Previous is the route that was replaced, or "" if a branch was replaced.
	Previous string

	// Route is the route that now occupies the key, or "" if a branch took its place.
	Route string
}

// RegionReport tells how many times each marker region was patched.
type RegionReport struct {
	Pages       int
	SubPackages int
}

// Result is everything one pipeline invocation produced.
type Result struct {
	// Pages is the full page set in discovery order, extensions stripped.
	Pages []string

	// MainPages are the pages outside any sub-bundle, in discovery order.
	MainPages []string

	// SubPages are the pages inside sub-bundles, in discovery order.
	SubPages []string

	// SubBundles are the grouped sub-bundles in first-seen order.
	SubBundles []SubBundle

	// Names is the root of the name tree.
	Names *Branch

	// Collisions lists name tree entries that were overwritten.
	Collisions []Collision

	// AppConfig is the patched app config document.
	AppConfig string

	// PagesModule is the generated pages module source.
	PagesModule []byte

	// Regions reports which marker regions were found.
	Regions RegionReport

	// AppConfigPath and PagesModulePath are the resolved output paths.
	AppConfigPath   string
	PagesModulePath string

	// Written is false for dry runs.
	Written bool
}
