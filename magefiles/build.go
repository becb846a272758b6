//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for upkeep using Mage.
//
// Usage:
//
//	mage build         Compile the upkeep binary to bin/
//	mage install       Install upkeep to GOPATH/bin
//	mage clean         Remove build artifacts
//	mage test:all      Run every test
//	mage test:unit     Run every test except the property tests
//	mage test:property Run property tests with more checks
//	mage test:cover    Run every test with a coverage profile
//	mage vet           Run go vet
//	mage lint          Run go vet and golangci-lint
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "upkeep"
	binaryDir   = "bin"
	cmdDir      = "./cmd/upkeep"
	versionVar  = "github.com/mesh-intelligence/upkeep/internal/cli.Version"
	versionFile = "VERSION"
)

// ldflags stamps the version from the VERSION file, when present.
func ldflags() string {
	data, err := os.ReadFile(versionFile)
	if err != nil {
		return ""
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return ""
	}
	return "-X " + versionVar + "=" + v
}

// Build compiles the upkeep binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if fl := ldflags(); fl != "" {
		args = append(args, "-ldflags", fl)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
