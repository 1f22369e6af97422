// Command staticlint is the multichecker run over the inoutbooks sources.
// It combines analyzers from the Go toolchain, third-party analyzers and the
// project's mainexit analyzer into a single multichecker.Main invocation.
//
// The staticcheck analyzers to enable are listed in staticlint.json next to
// the binary. Without that file the SA (bugs) group is enabled.
package main

import (
	// Standard analyzers from the Go toolchain.
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	// Third-party analyzers.
	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"

	"github.com/patric-chuzhbe/inoutbooks/cmd/staticlint/mainexit"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"honnef.co/go/tools/staticcheck"

	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config is the name of the JSON file that lists enabled staticcheck analyzers.
const Config = `staticlint.json`

// ConfigData describes the configuration file.
// Staticcheck holds analyzer names ("SA1000") or group prefixes ("SA4").
type ConfigData struct {
	Staticcheck []string
}

var defaultConfig = ConfigData{Staticcheck: []string{"SA"}}

func loadConfig() (ConfigData, error) {
	appfile, err := os.Executable()
	if err != nil {
		return ConfigData{}, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig, nil
	}
	if err != nil {
		return ConfigData{}, err
	}

	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		return ConfigData{}, err
	}

	return cfg, nil
}

func enabled(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasPrefix(name, pattern) {
			return true
		}
	}

	return false
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	myChecks := []*analysis.Analyzer{
		copylock.Analyzer,    // Checks for copying of locks by value.
		loopclosure.Analyzer, // Detects references to loop variables inside closures.
		lostcancel.Analyzer,  // Finds contexts that are not canceled.
		printf.Analyzer,      // Verifies format strings.
		structtag.Analyzer,   // Checks for incorrect struct field tags.
		unmarshal.Analyzer,   // Detects non-pointer JSON unmarshal targets.
		unreachable.Analyzer, // Detects unreachable code.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was checked.

		mainexit.Analyzer, // Forbids os.Exit and log.Fatal in main.main.
	}

	for _, v := range staticcheck.Analyzers {
		if enabled(v.Analyzer.Name, cfg.Staticcheck) {
			myChecks = append(myChecks, v.Analyzer)
		}
	}

	multichecker.Main(myChecks...)
}
