// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

//go:build tools

// Package main pins tool dependencies to go.mod.
package main

import (
	// Ginkgo CLI for the integration suites.
	_ "github.com/onsi/ginkgo/v2/ginkgo"
)
