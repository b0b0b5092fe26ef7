// Package config holds the run configuration and the optional YAML config
// file.
//
// The file has a defaults section and per-host overrides:
//
//	defaults:
//	  userAgent: "my-downloader/1.0"
//	  unsupportedLinks: abort
//	sites:
//	  images.example.com:
//	    extensions: [png, webp]
//	    headers:
//	      Referer: https://images.example.com/
package config
