// Copyright © 2024 The ELPS authors

// Package docs embeds the kiln language guides for use by the CLI.
package docs

import (
	_ "embed"
	"sort"
)

//go:embed lang.md
var LangGuide string

//go:embed debugging.md
var DebuggingGuide string

var guides = map[string]string{
	"lang":      LangGuide,
	"debugging": DebuggingGuide,
}

// Guide returns the guide with the given name.
func Guide(name string) (string, bool) {
	text, ok := guides[name]
	return text, ok
}

// Guides returns the names of the embedded guides.
func Guides() []string {
	names := make([]string, 0, len(guides))
	for name := range guides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
