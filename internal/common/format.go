package common

import (
	"fmt"
	"strings"
)

// DefaultWidth is the report width the cmd tools print at.
const DefaultWidth = 80

// PrintSeparator draws a full-width rule of the given character.
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader opens a report block: the title between two rules, with a blank
// line above to set it off from log output.
func PrintHeader(title string, width int) {
	fmt.Println()
	PrintSeparator("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter closes a report block with a summary line.
func PrintFooter(message string, width int) {
	fmt.Println()
	PrintSeparator("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix marks a list row; the last row closes the box edge.
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix continues the box edge under a row's detail lines, used by
// the history report for a payment's token legs.
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}
