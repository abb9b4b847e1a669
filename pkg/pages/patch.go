package pages

import (
	"regexp"
	"strings"
)

// Region is a span of the app config document delimited by two sentinel comments.
// Only the text strictly between the sentinels is ever rewritten.
type Region struct {
	Name  string
	Start string
	End   string

	re *regexp.Regexp
}

// NewRegion creates a region for the given sentinel pair.
func NewRegion(name, start, end string) Region {
	return Region{
		Name:  name,
		Start: start,
		End:   end,
		re:    regexp.MustCompile(`(?s)(` + regexp.QuoteMeta(start) + `)(.*?)(` + regexp.QuoteMeta(end) + `)`),
	}
}

var (
	// PagesRegion holds the main bundle page list.
	PagesRegion = NewRegion("pages", "/* pages start */", "/* pages end */")

	// SubPackagesRegion holds the sub-bundle declarations.
	SubPackagesRegion = NewRegion("subPackages", "/* subPackages start */", "/* subPackages end */")
)

// Patch replaces the body of every occurrence of the region in doc and returns
// the new document with the number of occurrences patched. A document without
// the sentinel pair is returned unchanged.
func (r Region) Patch(doc, body string) (string, int) {
	n := 0
	out := r.re.ReplaceAllStringFunc(doc, func(string) string {
		n++
		return r.Start + body + r.End
	})
	return out, n
}

// Body returns the current text between the first occurrence of the sentinels.
func (r Region) Body(doc string) (string, bool) {
	m := r.re.FindStringSubmatch(doc)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// PatchAppConfig rewrites the pages region of doc and, when withSubPackages is
// set, the subPackages region. Without it the subPackages region is left as is
// and reported as zero patches.
func PatchAppConfig(doc string, mainPages []string, bundles []SubBundle, withSubPackages bool) (string, RegionReport) {
	var report RegionReport
	doc, report.Pages = PagesRegion.Patch(doc, RenderPages(mainPages))
	if withSubPackages {
		doc, report.SubPackages = SubPackagesRegion.Patch(doc, RenderSubPackages(bundles))
	}
	return doc, report
}

// RenderPages renders the pages region body:
//
//	pages: [
//		'pages/index/page',
//	],
func RenderPages(mainPages []string) string {
	var b strings.Builder
	b.WriteString("\n\tpages: [\n")
	for _, page := range mainPages {
		b.WriteString("\t\t")
		b.WriteString(quote(page))
		b.WriteString(",\n")
	}
	b.WriteString("\t],\n\t")
	return b.String()
}

// RenderSubPackages renders the subPackages region body. Member pages of a
// bundle stay on one line; independent is only written when true.
func RenderSubPackages(bundles []SubBundle) string {
	const tab = "\t\t"

	var b strings.Builder
	b.WriteString("\n\tsubPackages: [\n")
	for _, bundle := range bundles {
		quoted := make([]string, len(bundle.Pages))
		for i, page := range bundle.Pages {
			quoted[i] = quote(page)
		}

		b.WriteString(tab + "{\n")
		b.WriteString(tab + "\troot: " + quote(bundle.Root) + ",\n")
		b.WriteString(tab + "\tpages: [\n")
		b.WriteString(tab + "\t\t" + strings.Join(quoted, ", ") + "\n")
		b.WriteString(tab + "\t],\n")
		if bundle.Independent {
			b.WriteString(tab + "\tindependent: true,\n")
		}
		b.WriteString(tab + "},\n")
	}
	b.WriteString("\t],\n\t")
	return b.String()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a single-quoted TypeScript string literal.
func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}
