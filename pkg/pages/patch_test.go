package pages

import (
	"strings"
	"testing"
)

const appConfigFixture = `export default defineAppConfig({
	/* pages start */
	pages: ['stale'],
	/* pages end */
	/* subPackages start */
	/* subPackages end */
	window: {
		navigationBarTitleText: 'shop',
	},
})
`

func TestRenderPages(t *testing.T) {
	got := RenderPages([]string{"pages/index/page", "pages/user-profile/page"})
	want := "\n\tpages: [\n" +
		"\t\t'pages/index/page',\n" +
		"\t\t'pages/user-profile/page',\n" +
		"\t],\n\t"
	if got != want {
		t.Errorf("RenderPages() = %q, want %q", got, want)
	}
}

func TestRenderPages_Empty(t *testing.T) {
	if got, want := RenderPages(nil), "\n\tpages: [\n\t],\n\t"; got != want {
		t.Errorf("RenderPages(nil) = %q, want %q", got, want)
	}
}

func TestRenderSubPackages(t *testing.T) {
	got := RenderSubPackages([]SubBundle{
		{Root: "pages/@shop", Pages: []string{"cart/page", "order_list/page"}},
		{Root: "pages/@@gift", Pages: []string{"detail/page"}, Independent: true},
	})
	want := "\n\tsubPackages: [\n" +
		"\t\t{\n" +
		"\t\t\troot: 'pages/@shop',\n" +
		"\t\t\tpages: [\n" +
		"\t\t\t\t'cart/page', 'order_list/page'\n" +
		"\t\t\t],\n" +
		"\t\t},\n" +
		"\t\t{\n" +
		"\t\t\troot: 'pages/@@gift',\n" +
		"\t\t\tpages: [\n" +
		"\t\t\t\t'detail/page'\n" +
		"\t\t\t],\n" +
		"\t\t\tindependent: true,\n" +
		"\t\t},\n" +
		"\t],\n\t"
	if got != want {
		t.Errorf("RenderSubPackages() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderSubPackages_Empty(t *testing.T) {
	if got, want := RenderSubPackages(nil), "\n\tsubPackages: [\n\t],\n\t"; got != want {
		t.Errorf("RenderSubPackages(nil) = %q, want %q", got, want)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"pages/index/page": `'pages/index/page'`,
		"it's":             `'it\'s'`,
		`back\slash`:       `'back\\slash'`,
	}
	for in, want := range tests {
		if got := quote(in); got != want {
			t.Errorf("quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPatchAppConfig(t *testing.T) {
	doc, report := PatchAppConfig(appConfigFixture,
		[]string{"pages/index/page"},
		[]SubBundle{{Root: "pages/@shop", Pages: []string{"cart/page"}}},
		true,
	)

	if report.Pages != 1 || report.SubPackages != 1 {
		t.Errorf("report = %+v", report)
	}
	if strings.Contains(doc, "stale") {
		t.Error("old region body should be gone")
	}

	body, ok := PagesRegion.Body(doc)
	if !ok || body != RenderPages([]string{"pages/index/page"}) {
		t.Errorf("pages body = %q", body)
	}
	if !strings.HasPrefix(doc, "export default defineAppConfig({\n\t/* pages start */\n") {
		t.Errorf("text before the region changed:\n%s", doc)
	}
	if !strings.HasSuffix(doc, "/* subPackages end */\n\twindow: {\n\t\tnavigationBarTitleText: 'shop',\n\t},\n})\n") {
		t.Errorf("text after the region changed:\n%s", doc)
	}
}

func TestPatchAppConfig_Idempotent(t *testing.T) {
	mainPages := []string{"pages/index/page", "pages/about/page"}
	bundles := []SubBundle{{Root: "pages/@@gift", Pages: []string{"a/page"}, Independent: true}}

	once, _ := PatchAppConfig(appConfigFixture, mainPages, bundles, true)
	twice, _ := PatchAppConfig(once, mainPages, bundles, true)
	if once != twice {
		t.Errorf("second patch changed the document:\n%s\n---\n%s", once, twice)
	}
}

func TestPatchAppConfig_RegionsAreIsolated(t *testing.T) {
	doc := "/* pages start */old/* pages end */ keep me /* subPackages start */old/* subPackages end */"

	out, _ := PatchAppConfig(doc, nil, nil, true)
	if !strings.Contains(out, "/* pages end */ keep me /* subPackages start */") {
		t.Errorf("text between regions changed: %q", out)
	}
}

func TestPatchAppConfig_WithoutSubPackages(t *testing.T) {
	doc := "/* pages start */old/* pages end */ /* subPackages start */keep/* subPackages end */"

	out, report := PatchAppConfig(doc, []string{"pages/index/page"},
		[]SubBundle{{Root: "pages/@shop", Pages: []string{"cart/page"}}},
		false,
	)
	if report != (RegionReport{Pages: 1}) {
		t.Errorf("report = %+v, want only the pages region", report)
	}
	body, _ := SubPackagesRegion.Body(out)
	if body != "keep" {
		t.Errorf("subPackages body = %q, want it untouched", body)
	}
	if body, _ := PagesRegion.Body(out); body != RenderPages([]string{"pages/index/page"}) {
		t.Errorf("pages body = %q", body)
	}
}

func TestRegion_MissingSentinels(t *testing.T) {
	tests := []string{
		"export default {}",
		"/* pages start */ only a start",
		"only an end /* pages end */",
		"/* pages end */ reversed /* pages start */",
	}
	for _, doc := range tests {
		out, n := PagesRegion.Patch(doc, "new")
		if n != 0 || out != doc {
			t.Errorf("Patch(%q) = %q, %d; want document unchanged", doc, out, n)
		}
	}
}

func TestRegion_EveryOccurrence(t *testing.T) {
	doc := "/* pages start */a/* pages end */\n/* pages start */b/* pages end */"

	out, n := PagesRegion.Patch(doc, "x")
	if n != 2 {
		t.Errorf("patched %d occurrences, want 2", n)
	}
	if want := "/* pages start */x/* pages end */\n/* pages start */x/* pages end */"; out != want {
		t.Errorf("Patch() = %q, want %q", out, want)
	}
}

func TestRegion_ShortestMatch(t *testing.T) {
	doc := "/* pages start */a/* pages end */ middle /* pages end */"

	out, _ := PagesRegion.Patch(doc, "x")
	if want := "/* pages start */x/* pages end */ middle /* pages end */"; out != want {
		t.Errorf("Patch() = %q, want %q", out, want)
	}
}

func TestRegion_DollarInBody(t *testing.T) {
	doc := "/* pages start *//* pages end */"

	out, _ := PagesRegion.Patch(doc, RenderPages([]string{"pages/$1/page"}))
	if !strings.Contains(out, "'pages/$1/page'") {
		t.Errorf("body was expanded: %q", out)
	}
}

func TestRegion_Body(t *testing.T) {
	body, ok := SubPackagesRegion.Body("x /* subPackages start */ inner /* subPackages end */ y")
	if !ok || body != " inner " {
		t.Errorf("Body() = %q, %v", body, ok)
	}
	if _, ok := SubPackagesRegion.Body("nothing here"); ok {
		t.Error("Body() should report a missing region")
	}
}
