package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the viewer's root line.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight renders identifiers and addresses inside messages.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue renders values next to their labels.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning renders warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
)

// Line prefixes
var (
	prefixSuccess = lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	prefixWarning = lipgloss.NewStyle().Foreground(colorYellow).Render("!")
	prefixInfo    = lipgloss.NewStyle().Foreground(colorGray).Render("›")
	prefixFile    = StyleDim.Render("→")
)

func printSuccess(format string, args ...any) {
	fmt.Println(prefixSuccess, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(prefixWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(prefixInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line under a status message.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written file.
func printFile(path string) {
	fmt.Println("  "+prefixFile, StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key), StyleValue.Render(value))
}

// printStats prints the record and node counts of a document, and whether
// the output came from cache, as one dotted line. Zero counts are left out.
func printStats(recordCount, nodeCount int, cached bool) {
	var parts []string
	if recordCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d records", recordCount)))
	}
	if nodeCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
