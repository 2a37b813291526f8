// Copyright © 2018 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// expandArgs expands arguments, resolving patterns ending with "/..." to all
// .lisp files found recursively under the given directory.  Files matching
// an exclude pattern are dropped from the expansion.  Other arguments pass
// through unchanged.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, ok := strings.CutSuffix(arg, "/...")
		if !ok {
			out = append(out, arg)
			continue
		}
		if dir == "" {
			dir = "."
		}
		files, err := findLispFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, filterExcludes(files, excludes)...)
	}
	return out, nil
}

func findLispFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".lisp" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes removes paths with a base name or directory component
// matching one of the glob patterns.
func filterExcludes(paths []string, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	var out []string
	for _, path := range paths {
		if !excluded(path, patterns) {
			out = append(out, path)
		}
	}
	return out
}

func excluded(path string, patterns []string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range patterns {
		for _, part := range parts {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
