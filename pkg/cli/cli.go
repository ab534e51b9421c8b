// Package cli holds the presentation helpers shared by agentmesh's cobra
// commands: the startup banner and a handful of formatted print helpers.
package cli

import (
	"fmt"
	"strings"
)

// PrintBanner displays the application banner.
func PrintBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║              AGENTMESH - In-Process Agent Runtime           ║
╚═══════════════════════════════════════════════════════════╝

A single-queue, lazily-instantiated multi-agent messaging runtime:
• Point-to-point send with awaited replies
• Topic publish with subscription fan-out
• Intervention middleware, cancellation, and lifecycle control
`
	fmt.Println(banner)
}

// PrintSection prints a formatted section header.
func PrintSection(title string) {
	fmt.Println("\n" + strings.Repeat("─", 70))
	fmt.Printf("  %s\n", title)
	fmt.Println(strings.Repeat("─", 70))
}

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	fmt.Printf("\n✓ %s\n", message)
}

// PrintError prints an error message.
func PrintError(message string) {
	fmt.Printf("\n✗ %s\n", message)
}

// PrintInfo prints an informational message.
func PrintInfo(message string) {
	fmt.Printf("\nℹ %s\n", message)
}
