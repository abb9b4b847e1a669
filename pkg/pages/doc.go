// Package pages implements page discovery and code generation for pagegen.
//
// The package provides:
//   - File-system based page discovery under a pages directory
//   - Classification into the main bundle and marker-prefixed sub-bundles
//   - A nested, camel-cased name tree mapping logical names to routes
//   - Region-based patching of the app config document
//   - Generation of the pages lookup module
//
// # File Structure Convention
//
// Pages are files with a fixed name (page.tsx, page.vue) in their own folder:
//
//	pages/
//	├── index/page.tsx             → 'pages/index/page'            (main)
//	├── user-profile/page.tsx      → 'pages/user-profile/page'     (main)
//	├── @shop/                     → sub-bundle root 'pages/@shop'
//	│   └── cart/page.tsx          → 'cart/page'
//	└── @@gift/                    → independent sub-bundle 'pages/@@gift'
//	    └── detail/page.tsx        → 'detail/page'
//
// # Name Tree
//
// The folders between the pages directory and the page file become a key
// path. Separators followed by a lowercase letter are folded to camel case
// and bundle markers are dropped:
//
//	pages/user-profile/page        → userProfile
//	pages/@shop/order_list/page    → shop.orderList
//
// # Usage
//
//	result, err := pages.Generate(ctx, pages.Options{
//	    Cwd:      "src",
//	    PageName: "page.tsx",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.MainPages), len(result.SubBundles))
package pages
