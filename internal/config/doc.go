// Package config resolves pagegen configuration.
//
// Values come from, in increasing priority:
//
//   - built-in defaults
//   - pagegen.json, pagegen.yaml or pagegen.toml in the working directory
//   - the .env file in the working directory and PAGEGEN_* environment variables
//   - command-line flags the user set
//
// # Configuration File Structure
//
//	{
//	  "dir": "pages",
//	  "appConfigName": "app.config.ts",
//	  "pagesName": "utils/pages.ts",
//	  "framework": "vue",
//	  "excludeUnderscore": true,
//	  "excludePolicy": "segment",
//	  "subPackages": true,
//	  "ignore": ["__tests__"],
//	  "watch": {
//	    "debounce": "200ms",
//	    "addr": ":9464"
//	  }
//	}
//
// Environment variables use the upper-cased key with dots replaced by
// underscores: PAGEGEN_PAGENAME, PAGEGEN_WATCH_DEBOUNCE.
//
// # Usage
//
//	cfg, err := config.Load(".", cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := pages.Generate(ctx, cfg.Options())
package config
