// Package config loads tagger configuration from TOML or YAML files and
// keeps the active configuration in a Store that notifies on change.
//
// A missing configuration file is not an error: Load returns Default().
// Values present in the file override the defaults field by field.
//
// Example TOML:
//
//	[char_display]
//	enabled = true
//	notation = "caret"   # caret, hex or name
//	unicode = true
//
//	[activation]
//	expr = '"editable" in roles'
//
//	[theme.styles.directory]
//	foreground = "#5f87d7"
//	bold = true
//
// A Watcher reloads the file into a Store when it changes on disk.
package config
