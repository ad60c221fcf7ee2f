/*
Package config provides typed reads over loosely typed maps and the
application settings for the flowcanvas binary.

# Typed reads

Config wraps a map[string]any, such as a decoded update-config patch or a
settings file, and returns a caller-supplied default whenever a key is
missing or holds a value of the wrong type:

	patch := config.New(map[string]any{"prompt": "summarize", "retries": 2.0})

	patch.String("prompt", "Hello model") // "summarize"
	patch.Int("retries", 1)               // 2
	patch.Bool("verbose", false)          // false

# Settings

LoadSettings reads an optional YAML or JSON file, then applies FLOWCANVAS_*
environment overrides on top of the defaults:

	settings, err := config.LoadSettings("flowcanvas.yaml")
	if err != nil {
	    log.Fatal(err)
	}

A Config is safe for concurrent reads as long as the wrapped map is not
modified by its owner.
*/
package config
