//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// propertyChecks is the rapid iteration count for Test:Property.
const propertyChecks = "2000"

// Test groups test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs every test except the property tests.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "-skip", "Property", "./...")
}

// Property runs the property tests with more checks than the default.
func (Test) Property() error {
	return sh.RunV(binGo, "test", "-run", "Property", "./internal/...", "-args", "-rapid.checks="+propertyChecks)
}

// Cover runs every test with a coverage profile in bin/coverage.out.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "test", "-coverprofile="+binaryDir+"/coverage.out", "./...")
}
