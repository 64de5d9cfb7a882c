//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	binDir  = "bin"
	appName = "marblehills-box"
)

var Default = Dev

// Dev: tidy first, then hot reload with air when available.
func Dev() error {
	mg.Deps(Tidy)

	if _, err := exec.LookPath("air"); err == nil {
		fmt.Println("Starting hot-reload with air ...")
		return sh.RunV("air")
	}

	fmt.Println("air not found. Falling back to `go run ./cmd/web`.")
	fmt.Println("Install with: mage Tools")
	return Run()
}

// Run: go run ./cmd/web
func Run() error {
	return sh.RunV("go", "run", "./cmd/web")
}

// Build: compile the web binary into bin/
func Build() error {
	mg.Deps(Tidy)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(binDir, appName)
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	return sh.RunV("go", "build", "-o", out, "./cmd/web")
}

// Mock: run the local fake storefront.
func Mock() error {
	return sh.RunV("go", "run", "./cmd/tools/mockstorefront")
}

// Test: go test with race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint: golangci-lint if installed, else go vet.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err == nil {
		return sh.RunV("golangci-lint", "run")
	}
	fmt.Println("golangci-lint not found, running go vet.")
	return sh.RunV("go", "vet", "./...")
}

// Tidy: go mod tidy
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Tools: install dev tools.
func Tools() error {
	tools := []string{
		"github.com/air-verse/air@latest",
		"github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest",
	}
	for _, t := range tools {
		if err := sh.RunV("go", "install", t); err != nil {
			return err
		}
	}
	return nil
}
