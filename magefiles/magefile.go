//go:build mage

// Package main contains Mage build targets for publish-or-not developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "publish-or-not"
	cmdPkg  = "./cmd/publish-or-not"
	dataDir = "data"
)

// sampleFiles are written by Init when they do not exist yet.
var sampleFiles = map[string]string{
	filepath.Join(dataDir, "names.txt"): "A. Smith\nB. Jones\n",
	filepath.Join(dataDir, "proxies.txt"): "# one proxy per line: host:port or socks5://host:port\n" +
		"127.0.0.1:8080\n",
	filepath.Join(dataDir, "sites.csv"): "rank,address\n1,wikipedia.org\n2,bbc.co.uk\n3,github.com\n4,stackoverflow.com\n",
	"publish-or-not.yaml": `venue: Learning Analytics
year_from: 2013
year_to: 2017
output: Output.txt
history_db: .publish-or-not/history.db
rate_limit:
  rest_every: 15
  rest: {mean: 120, min: 60, std: 30}
  request: {mean: 10, min: 5, std: 3}
decoy:
  list_path: data/sites.csv
alert:
  smtp_host: ""
  smtp_port: 587
  to: []
`,
}

// Init writes sample input files and the config file for a first run.
func Init() error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dataDir, err)
	}
	for path, content := range sampleFiles {
		if _, err := os.Stat(path); err == nil {
			fmt.Println("   exists ", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("   created", path)
	}
	fmt.Println("Sample files initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. The sqlite driver needs cgo.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check builds the binary and checks the sample names against the sample
// config. It sends real requests to Google Scholar.
func Check() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "check",
		"-l", filepath.Join(dataDir, "names.txt"), "--force")
}

// Stats prints Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines counts non-blank lines in Go files under root, skipping
// hidden and underscore-prefixed directories.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name[0] == '.' || name[0] == '_') {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != ".go" {
			return nil
		}
		isTest := len(name) > 8 && name[len(name)-8:] == "_test.go"
		if testOnly != isTest {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		blank := true
		for _, b := range data {
			switch b {
			case '\n':
				if !blank {
					total++
				}
				blank = true
			case ' ', '\t', '\r':
			default:
				blank = false
			}
		}
		if !blank {
			total++
		}
		return nil
	})
	return total, err
}
