//go:build mage

// Package main contains Mage build targets for citechat developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default is the target run by a bare `mage`.
var Default = Build

const (
	binDir  = "bin"
	binName = "citechat"
	cmdPkg  = "./cmd/citechat"

	// buildTags enables SQLite FTS5 in mattn/go-sqlite3 for the history index.
	buildTags = "sqlite_fts5"
)

// Build compiles the CLI binary into bin/, stamping the version from
// CITECHAT_VERSION or `git describe`.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + buildVersion()
	if err := sh.RunV("go", "build", "-tags", buildTags, "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test vets the tree and runs the unit tests with the race detector.
func Test() error {
	mg.Deps(Vet)
	if err := sh.RunV("go", "test", "-tags", buildTags, "-race", "./..."); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}

// Vet runs go vet over every package.
func Vet() error {
	if err := sh.RunV("go", "vet", "-tags", buildTags, "./..."); err != nil {
		return fmt.Errorf("go vet: %w", err)
	}
	return nil
}

// Stats prints project metrics: Go production and test lines per package.
func Stats() error {
	prod, test, err := countGoLines(".")
	if err != nil {
		return err
	}

	total := 0
	for _, dir := range sortedKeys(prod, test) {
		fmt.Printf("%-28s %6d prod %6d test\n", dir, prod[dir], test[dir])
		total += prod[dir]
	}
	testTotal := 0
	for _, n := range test {
		testTotal += n
	}
	fmt.Printf("\nLines of code (Go, production): %d\n", total)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testTotal)
	return nil
}

func buildVersion() string {
	if v := os.Getenv("CITECHAT_VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "dev"
	}
	return out
}

// countGoLines counts non-blank lines of Go files per directory, split into
// production and test files. Hidden and underscore-prefixed directories
// are skipped, as the go tool does.
func countGoLines(root string) (prod, test map[string]int, err error) {
	prod = make(map[string]int)
	test = make(map[string]int)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := nonBlankLines(data)
		dir := filepath.Dir(path)
		if strings.HasSuffix(path, "_test.go") {
			test[dir] += n
		} else {
			prod[dir] += n
		}
		return nil
	})
	return prod, test, err
}

func nonBlankLines(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	return n
}

func sortedKeys(maps ...map[string]int) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
