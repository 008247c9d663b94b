/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

// Version is the current version of Squonk Radio.
// This is set at build time via ldflags:
//
//	-X github.com/squonklabs/squonk_radio/internal/version.Version=X.Y.Z
var Version = "1.0.0"
