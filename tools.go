//go:build tools
// +build tools

// Package tools imports dependencies that are used by this project but not directly
// imported in the main codebase. This ensures they are tracked in go.mod.
package tools

import (
	// Configuration
	_ "github.com/spf13/viper"

	// Logging
	_ "github.com/rs/zerolog"

	// Spreadsheets
	_ "github.com/xuri/excelize/v2"

	// Utilities
	_ "github.com/agnivade/levenshtein"
	_ "github.com/go-playground/validator/v10"
	_ "github.com/google/uuid"
	_ "golang.org/x/text/unicode/norm"

	// Rate limiting
	_ "golang.org/x/time/rate"

	// Metrics
	_ "github.com/prometheus/client_golang/prometheus"

	// Testing
	_ "github.com/stretchr/testify/assert"
	_ "github.com/stretchr/testify/require"
)
