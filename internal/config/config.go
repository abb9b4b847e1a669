package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/pages"
)

const (
	// ConfigName is the configuration file name without extension.
	// pagegen.json, pagegen.yaml and pagegen.toml are all recognized.
	ConfigName = "pagegen"

	// EnvPrefix prefixes every environment variable, e.g. PAGEGEN_DIR.
	EnvPrefix = "PAGEGEN"

	// EnvFile is loaded from the working directory before the environment is read.
	EnvFile = ".env"

	// DefaultFramework is the framework assumed when none is configured.
	DefaultFramework = "react"

	// DefaultExcludePolicy applies when excludeUnderscore is set without a policy.
	DefaultExcludePolicy = pages.ExcludeSegment

	// DefaultDebounce is the watch debounce window.
	DefaultDebounce = 100 * time.Millisecond

	// VuePageName and ReactPageName are the framework page file defaults.
	VuePageName   = "page.vue"
	ReactPageName = pages.DefaultPageName
)

// Config is the resolved pagegen configuration.
type Config struct {
	// Dir is the pages sub-directory.
	Dir string `mapstructure:"dir"`

	// AppConfigName is the app config document, relative to the working directory.
	AppConfigName string `mapstructure:"appConfigName"`

	// PagesName is the generated module path, relative to the working directory.
	PagesName string `mapstructure:"pagesName"`

	// PageName is the page file name. Empty means the framework default.
	PageName string `mapstructure:"pageName"`

	// Framework selects the default page name: anything containing "vue"
	// uses page.vue, everything else page.tsx.
	Framework string `mapstructure:"framework"`

	// ExcludeUnderscore enables underscore exclusion with ExcludePolicy.
	ExcludeUnderscore bool `mapstructure:"excludeUnderscore"`

	// ExcludePolicy is "segment" or "filename".
	ExcludePolicy string `mapstructure:"excludePolicy"`

	// SubPackages enables sub-bundle grouping.
	SubPackages bool `mapstructure:"subPackages"`

	// Ignore lists extra doublestar patterns for folders skipped by the
	// scanner and the watcher, e.g. "fixtures" or "legacy/**".
	Ignore []string `mapstructure:"ignore"`

	// Watch contains watch mode configuration.
	Watch WatchConfig `mapstructure:"watch"`

	// cwd is the absolute working directory.
	cwd string

	// configPath stores the path where the config file was loaded from.
	configPath string
}

// WatchConfig contains watch mode configuration.
type WatchConfig struct {
	// Debounce is how long changes are collected before a run.
	Debounce time.Duration `mapstructure:"debounce"`

	// Addr serves /metrics, /healthz and the event stream when set.
	Addr string `mapstructure:"addr"`
}

// FlagNames maps configuration keys to the command-line flags bound to them.
var FlagNames = map[string]string{
	"dir":               "dir",
	"appConfigName":     "app-config",
	"pagesName":         "pages-name",
	"pageName":          "page-name",
	"framework":         "framework",
	"excludeUnderscore": "exclude-underscore",
	"excludePolicy":     "exclude-policy",
	"subPackages":       "sub-packages",
	"ignore":            "ignore",
	"watch.debounce":    "debounce",
	"watch.addr":        "addr",
}

// setDefaults registers the default of every key. Keys must be known to viper
// for environment variables to be picked up on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", pages.DefaultDir)
	v.SetDefault("appConfigName", pages.DefaultAppConfigName)
	v.SetDefault("pagesName", pages.DefaultPagesName)
	v.SetDefault("pageName", "")
	v.SetDefault("framework", DefaultFramework)
	v.SetDefault("excludeUnderscore", false)
	v.SetDefault("excludePolicy", string(DefaultExcludePolicy))
	v.SetDefault("subPackages", true)
	v.SetDefault("ignore", []string{})
	v.SetDefault("watch.debounce", DefaultDebounce)
	v.SetDefault("watch.addr", "")
}

// New creates a configuration with default values for the current directory.
func New() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{cwd: "."}
	if err := v.Unmarshal(cfg); err != nil {
		// The defaults are static; failing to decode them is a programming error.
		panic("config: decoding defaults: " + err.Error())
	}
	return cfg
}

// Load resolves the configuration for cwd. Sources, in increasing priority:
// defaults, the pagegen.{json,yaml,toml} file in cwd, the .env file and
// PAGEGEN_* environment variables, and the changed flags of flags (may be nil).
func Load(cwd string, flags *pflag.FlagSet) (*Config, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, errors.New("E140").WithPath(cwd).Wrap(err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		ge := errors.New("E140").WithPath(abs)
		if err != nil {
			ge = ge.Wrap(err)
		}
		return nil, ge
	}

	// Variables already in the environment win over the .env file.
	if err := godotenv.Load(filepath.Join(abs, EnvFile)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.New("E120").
			WithPath(filepath.Join(abs, EnvFile)).
			WithDetail("The .env file could not be parsed.").
			Wrap(err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(ConfigName)
	v.AddConfigPath(abs)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.New("E120").WithPath(v.ConfigFileUsed()).Wrap(err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range FlagNames {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.New("E122").WithDetail("flag --" + name).Wrap(err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E122").WithPath(v.ConfigFileUsed()).Wrap(err)
	}
	cfg.cwd = abs
	cfg.configPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ExcludeUnderscore {
		switch pages.ExcludePolicy(c.ExcludePolicy) {
		case pages.ExcludeSegment, pages.ExcludeFilename:
		default:
			return errors.New("E121").
				WithDetail("excludePolicy must be \"segment\" or \"filename\", got \"" + c.ExcludePolicy + "\".")
		}
	}

	required := []struct {
		key   string
		value string
	}{
		{"dir", c.Dir},
		{"appConfigName", c.AppConfigName},
		{"pagesName", c.PagesName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.New("E122").WithDetail(r.key + " must not be empty")
		}
	}
	if strings.Contains(c.PageName, "/") {
		return errors.New("E122").WithDetail("pageName must be a file name, got \"" + c.PageName + "\"")
	}
	if c.Watch.Debounce < 0 {
		return errors.New("E122").WithDetail("watch.debounce must not be negative")
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.New("E122").WithDetail("invalid ignore pattern \"" + pattern + "\"")
		}
	}
	return nil
}

// Cwd returns the absolute working directory.
func (c *Config) Cwd() string {
	return c.cwd
}

// Path returns the path of the config file that was loaded, or "" if none.
func (c *Config) Path() string {
	return c.configPath
}

// ResolvedPageName returns the page file name. An explicit pageName always
// wins; otherwise the framework decides.
func (c *Config) ResolvedPageName() string {
	if c.PageName != "" {
		return c.PageName
	}
	if strings.Contains(strings.ToLower(c.Framework), "vue") {
		return VuePageName
	}
	return ReactPageName
}

// ResolvedExcludePolicy returns the exclusion policy in effect.
func (c *Config) ResolvedExcludePolicy() pages.ExcludePolicy {
	if !c.ExcludeUnderscore {
		return pages.ExcludeNone
	}
	if c.ExcludePolicy == "" {
		return DefaultExcludePolicy
	}
	return pages.ExcludePolicy(c.ExcludePolicy)
}

// Options returns fully resolved pipeline options.
func (c *Config) Options() pages.Options {
	return pages.Options{
		Cwd:                c.cwd,
		Dir:                c.Dir,
		AppConfigName:      c.AppConfigName,
		PagesName:          c.PagesName,
		PageName:           c.ResolvedPageName(),
		Exclude:            c.ResolvedExcludePolicy(),
		Ignore:             append([]string(nil), c.Ignore...),
		DisableSubPackages: !c.SubPackages,
	}
}

// PagesPath returns the absolute path to the pages directory.
func (c *Config) PagesPath() string {
	return c.Options().PagesPath()
}

// AddFlags defines the generation flags on fs. Only flags the user sets
// override the other sources.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("dir", pages.DefaultDir, "pages sub-directory")
	fs.String("app-config", pages.DefaultAppConfigName, "app config document")
	fs.String("pages-name", pages.DefaultPagesName, "generated module path")
	fs.String("page-name", "", "page file name (default: framework default)")
	fs.String("framework", DefaultFramework, "framework, \"vue\" selects page.vue")
	fs.Bool("exclude-underscore", false, "exclude pages with underscore names")
	fs.String("exclude-policy", string(DefaultExcludePolicy), "underscore exclusion policy: segment (folder starts with _) or filename (_ anywhere in the folder path)")
	fs.Bool("sub-packages", true, "group @-prefixed folders into sub-packages")
	fs.StringSlice("ignore", nil, "extra folder globs to skip, e.g. fixtures or legacy/**")
}

// AddWatchFlags defines the watch mode flags on fs.
func AddWatchFlags(fs *pflag.FlagSet) {
	fs.Duration("debounce", DefaultDebounce, "debounce window for file changes")
	fs.String("addr", "", "serve /metrics, /healthz and the event stream on this address")
}
