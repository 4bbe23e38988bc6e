//go:build tools

package tools

// Build-time tooling kept on the module graph.
import (
	_ "github.com/swaggo/swag/cmd/swag"
)
