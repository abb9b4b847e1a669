package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yme-dev/pagegen/internal/errors"
)

const appConfig = `export default defineAppConfig({
	/* pages start */
	/* pages end */
	/* subPackages start */
	/* subPackages end */
})
`

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app.config.ts":                   appConfig,
		"pages/index/page.tsx":            "",
		"pages/@shop/cart/page.tsx":       "",
		"pages/@shop/order_list/page.vue": "",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of watch mode.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr syncBuffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGen(t *testing.T) {
	root := newProject(t)

	out, _, err := execute(context.Background(), "gen", "--cwd", root, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "Found 2 pages in 1 sub-packages")
	assert.Contains(t, out, "✓ Updated app.config.ts")
	assert.Contains(t, out, "✓ Generated utils/pages.ts")

	module := readFile(t, filepath.Join(root, "utils", "pages.ts"))
	assert.Contains(t, module, `"cart": "/pages/@shop/cart/page"`)
	assert.NotContains(t, module, "orderList")

	cfg := readFile(t, filepath.Join(root, "app.config.ts"))
	assert.Contains(t, cfg, "'pages/index/page',")
	assert.Contains(t, cfg, "root: 'pages/@shop',")
}

func TestGen_FlagsOverrideDefaults(t *testing.T) {
	root := newProject(t)

	_, _, err := execute(context.Background(), "gen", "--cwd", root, "--framework", "vue", "--pages-name", "src/routes.ts")
	require.NoError(t, err)

	module := readFile(t, filepath.Join(root, "src", "routes.ts"))
	assert.Contains(t, module, `"orderList": "/pages/@shop/order_list/page"`)
	assert.NotContains(t, module, `"cart"`)
	assert.NoFileExists(t, filepath.Join(root, "utils", "pages.ts"))
}

func TestGen_ConfigFile(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pagegen.yaml"), []byte("subPackages: false\n"), 0644))

	out, _, err := execute(context.Background(), "gen", "--cwd", root, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Using pagegen.yaml")

	cfg := readFile(t, filepath.Join(root, "app.config.ts"))
	assert.Contains(t, cfg, "'pages/@shop/cart/page',")
	assert.NotContains(t, cfg, "root:")
}

func TestGen_DryRun(t *testing.T) {
	root := newProject(t)

	out, _, err := execute(context.Background(), "gen", "--cwd", root, "--dry-run", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "Dry run, nothing written")
	assert.Contains(t, out, "export default {")
	assert.NoFileExists(t, filepath.Join(root, "utils", "pages.ts"))
	assert.Equal(t, appConfig, readFile(t, filepath.Join(root, "app.config.ts")))
}

func TestGen_MissingRegionWarns(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.config.ts"), []byte("export default {}\n"), 0644))

	stdout, stderr, err := execute(context.Background(), "gen", "--cwd", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No pages markers in app.config.ts, page list not written")
	assert.Contains(t, stdout, "No subPackages markers in app.config.ts")
	assert.Empty(t, stderr)
}

func TestGen_MissingRegionLogsWhenVerbose(t *testing.T) {
	root := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.config.ts"), []byte("export default {}\n"), 0644))

	_, stderr, err := execute(context.Background(), "gen", "--cwd", root, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "marker region not found")
}

func TestGen_NameCollisionWarns(t *testing.T) {
	root := newProject(t)
	for _, name := range []string{"pages/orderList/page.tsx", "pages/order_list/page.tsx"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	stdout, _, err := execute(context.Background(), "gen", "--cwd", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Name orderList now points to /pages/order_list/page, /pages/orderList/page is unreachable")
}

func TestGen_MissingPagesDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.config.ts"), []byte(appConfig), 0644))

	_, _, err := execute(context.Background(), "gen", "--cwd", root)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDiscovery, errors.CodeOf(err))
}

func TestGen_InvalidPolicy(t *testing.T) {
	root := newProject(t)

	_, _, err := execute(context.Background(), "gen", "--cwd", root, "--exclude-underscore", "--exclude-policy", "everything")
	require.Error(t, err)
	assert.Equal(t, "E121", errors.CodeOf(err))
}

func TestGen_RejectsArgs(t *testing.T) {
	_, _, err := execute(context.Background(), "gen", "extra")
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	root := newProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, _, err := execute(ctx, "watch", "--cwd", root, "--debounce", "20ms", "--no-color")
		done <- result{out, err}
	}()

	modulePath := filepath.Join(root, "utils", "pages.ts")
	require.Eventually(t, func() bool {
		_, err := os.Stat(modulePath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "Watching pages")
		assert.Contains(t, r.out, "Generated 2 pages in 1 sub-packages")
		assert.True(t, strings.HasSuffix(strings.TrimSpace(r.out), "Stopped"))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(context.Background(), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)

	out, _, err = execute(context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pagegen "+version)
	assert.Contains(t, out, "Go version:")
}

func TestRelTo(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work")

	assert.Equal(t, "utils/pages.ts", relTo(root, filepath.Join(root, "utils", "pages.ts")))
	assert.Equal(t, ".", relTo(root, root))
	assert.Equal(t, "relative", relTo(root, "relative"))
}
