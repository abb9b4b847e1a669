package pages

import "strings"

// IsSubBundlePage reports whether page lives under a marker folder directly below dir.
func IsSubBundlePage(page, dir string) bool {
	return strings.HasPrefix(page, dir+"/"+BundleMarker)
}

// Classify splits pages into main-bundle and sub-bundle pages, keeping the
// input order on both sides. It never touches the file system.
func Classify(pages []string, dir string) (mainPages, subPages []string) {
	mainPages = make([]string, 0, len(pages))
	for _, page := range pages {
		if IsSubBundlePage(page, dir) {
			subPages = append(subPages, page)
			continue
		}
		mainPages = append(mainPages, page)
	}
	return mainPages, subPages
}
