// Package config holds the options of a creepycrawler run.
//
// A Config starts from NewConfig defaults, picks up the matching site entry of
// the .creepycrawler YAML file through ApplySiteConfig, and is finally
// overridden by command line flags. Validate is called once before any work
// starts; it is mode-aware, so a crawl needs a website while a report run
// needs a webroot.
//
// The configuration file has a defaults section and per-host overrides:
//
//	defaults:
//	  treeIgnore: '^\.'
//	  formats: [json, md]
//	sites:
//	  example.com:
//	    ignore: '\.pdf$'
//	    maxPages: 500
//	    headers:
//	      Authorization: "Bearer ..."
package config
