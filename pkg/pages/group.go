package pages

import "strings"

// Group aggregates sub-bundle pages by their root, the pages directory plus the
// first folder below it. Bundles come out in first-seen order and member pages
// keep their order within each bundle.
func Group(subPages []string, dir string) []SubBundle {
	var bundles []SubBundle
	index := make(map[string]int)

	for _, page := range subPages {
		root, rest := splitBundleRoot(page, dir)

		i, ok := index[root]
		if !ok {
			i = len(bundles)
			index[root] = i
			bundles = append(bundles, SubBundle{
				Root:        root,
				Pages:       []string{},
				Independent: isIndependentRoot(root, dir),
			})
		}
		bundles[i].Pages = append(bundles[i].Pages, rest)
	}

	return bundles
}

// splitBundleRoot splits "pages/@shop/cart/page" into "pages/@shop" and "cart/page".
func splitBundleRoot(page, dir string) (root, rest string) {
	below := strings.TrimPrefix(page, dir+"/")
	folder, rest, _ := strings.Cut(below, "/")
	return dir + "/" + folder, rest
}

func isIndependentRoot(root, dir string) bool {
	return strings.HasPrefix(strings.TrimPrefix(root, dir+"/"), IndependentMarker)
}
