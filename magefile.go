//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/dkoosis/specio"
	binPath    = "bin/specio"
)

// Default target - build the binary
var Default = Build

// Build builds the specio binary with version metadata.
func Build() error {
	date := time.Now().UTC().Format(time.RFC3339)
	ldflags := fmt.Sprintf("-s -w -X '%[1]s/internal/version.Version=%[2]s' -X '%[1]s/internal/version.CommitHash=%[3]s' -X '%[1]s/internal/version.BuildDate=%[4]s'",
		modulePath, gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*"),
		gitOutput("unknown", "rev-parse", "--short", "HEAD"), date)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/specio"); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Println("Built:", binPath)
	return nil
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}

// QA runs format, vet, lint and tests, then builds.
func QA() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Lint.Golangci, Test.All, Build)
}

// Lint namespace for linting commands
type Lint mg.Namespace

// Format fails when gofmt would change a file.
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("unformatted files:\n%s", files)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint when it is installed.
func (Lint) Golangci() error {
	return optionalTool("golangci-lint", "go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"run", "--timeout=5m", "./...")
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Coverage runs tests with coverage
func (Test) Coverage() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	if err := sh.RunV("go", "test", "-coverprofile=bin/coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=bin/coverage.out")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// optionalTool runs name with args, warning instead of failing when the tool
// is not installed.
func optionalTool(name, install string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ %s not found (install: %s)\n", name, install)
		return nil
	}
	if err := sh.RunV(name, args...); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func gitOutput(fallback string, args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil || out == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
