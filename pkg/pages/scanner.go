package pages

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yme-dev/pagegen/internal/errors"
)

// ExcludePolicy selects how underscore-marked paths are filtered out of discovery.
type ExcludePolicy string

const (
	// ExcludeNone keeps every matching page.
	ExcludeNone ExcludePolicy = "none"

	// ExcludeSegment drops pages where any folder below the root starts with "_".
	ExcludeSegment ExcludePolicy = "segment"

	// ExcludeFilename drops pages whose path below the pages directory contains
	// "_" anywhere, e.g. pages/my_orders/page.
	ExcludeFilename ExcludePolicy = "filename"
)

// Valid reports whether p is a known policy. The empty policy counts as ExcludeNone.
func (p ExcludePolicy) Valid() bool {
	switch p {
	case "", ExcludeNone, ExcludeSegment, ExcludeFilename:
		return true
	}
	return false
}

// DefaultIgnore contains directory names never descended into.
var DefaultIgnore = []string{
	"node_modules",
	".git",
}

// Scanner scans a pages directory for page files.
type Scanner struct {
	rootDir  string
	dir      string
	pageName string
}

// NewScanner creates a scanner for rootDir/dir matching files named pageName.
func NewScanner(rootDir, dir, pageName string) *Scanner {
	return &Scanner{
		rootDir:  rootDir,
		dir:      strings.Trim(filepath.ToSlash(dir), "/"),
		pageName: pageName,
	}
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	// Exclude selects the underscore exclusion policy.
	Exclude ExcludePolicy

	// Ignore lists extra directories to skip, on top of DefaultIgnore. Entries
	// are doublestar globs: "fixtures" and "_*" match a folder name, while
	// "legacy/**" matches folders below the pages directory.
	Ignore []string
}

// Scan returns every page under the pages directory with no underscore filtering.
func (s *Scanner) Scan() ([]string, error) {
	return s.ScanWithOptions(ScanOptions{})
}

// ScanWithOptions walks the pages directory for dir/**/pageName and returns
// page paths relative to the root directory, slash separated, with the page
// file extension removed. A folder's own page comes before the pages of its
// sub-folders; sibling folders are visited in lexical order.
func (s *Scanner) ScanWithOptions(opts ScanOptions) ([]string, error) {
	if !opts.Exclude.Valid() {
		return nil, errors.New("E121").WithDetail(fmt.Sprintf("got %q", opts.Exclude))
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.New("E122").
				WithStage(string(StageScan)).
				WithDetail(fmt.Sprintf("ignore pattern %q is not a valid glob", pattern))
		}
	}

	base := filepath.Join(s.rootDir, filepath.FromSlash(s.dir))
	info, err := os.Stat(base)
	if err != nil {
		return nil, discoveryError(base, err)
	}
	if !info.IsDir() {
		return nil, discoveryError(base, fmt.Errorf("not a directory"))
	}

	fsys := &pagesFS{
		FS:     os.DirFS(s.rootDir),
		base:   s.dir,
		ignore: append(append([]string{}, DefaultIgnore...), opts.Ignore...),
	}

	ext := filepath.Ext(s.pageName)
	var found []string

	err = doublestar.GlobWalk(fsys, s.pattern(), func(rel string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		if excluded(rel, s.dir, opts.Exclude) {
			return nil
		}
		found = append(found, strings.TrimSuffix(rel, ext))
		return nil
	}, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, discoveryError(base, err)
	}

	return found, nil
}

// pattern returns the glob matching every page file below the pages directory.
func (s *Scanner) pattern() string {
	name := escapeMeta(s.pageName)
	if s.dir == "" {
		return "**/" + name
	}
	return escapeMeta(s.dir) + "/**/" + name
}

var metaEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// escapeMeta makes a literal path segment safe to embed in a glob.
func escapeMeta(s string) string {
	return metaEscaper.Replace(s)
}

// pagesFS hides hidden and ignored directories from the glob walk, so they are
// never descended into. Ignore patterns without a "/" match a folder name;
// patterns with one match the folder path below the pages directory.
type pagesFS struct {
	fs.FS
	base   string
	ignore []string
}

// ReadDir implements fs.ReadDirFS.
func (f *pagesFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(f.FS, name)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if (e.IsDir() || e.Type()&fs.ModeSymlink != 0) && f.skip(path.Join(name, e.Name())) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

func (f *pagesFS) skip(dir string) bool {
	name := path.Base(dir)
	// Hidden folders never hold pages.
	if strings.HasPrefix(name, ".") {
		return true
	}

	below := strings.TrimPrefix(dir, f.base+"/")
	for _, pattern := range f.ignore {
		target := name
		if strings.Contains(pattern, "/") {
			target = below
		}
		if ok, _ := doublestar.Match(pattern, target); ok {
			return true
		}
	}
	return false
}

// excluded applies the underscore policy to a root-relative page file path.
// Only the folders between the pages directory and the page file are checked.
func excluded(rel, dir string, policy ExcludePolicy) bool {
	folders := path.Dir(strings.TrimPrefix(rel, dir+"/"))
	if folders == "." {
		return false
	}

	switch policy {
	case ExcludeFilename:
		return strings.Contains(folders, "_")
	case ExcludeSegment:
		for _, seg := range strings.Split(folders, "/") {
			if strings.HasPrefix(seg, "_") {
				return true
			}
		}
	}
	return false
}

func discoveryError(dir string, err error) error {
	return errors.New(errors.CodeDiscovery).
		WithStage(string(StageScan)).
		WithPath(dir).
		Wrap(err)
}
