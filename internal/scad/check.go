package scad

import (
	"fmt"
	"regexp"
	"strings"
)

// Summary counts the primitives and operations found in a script.
type Summary struct {
	Cubes       int
	Cylinders   int
	Translates  int
	Differences int
	Unions      int
}

var callRe = regexp.MustCompile(`\b(cube|cylinder|translate|difference|union)\s*\(`)

// Parse strips comments and counts the calls in a script.
func Parse(script string) Summary {
	var s Summary
	for _, m := range callRe.FindAllStringSubmatch(stripComments(script), -1) {
		switch m[1] {
		case "cube":
			s.Cubes++
		case "cylinder":
			s.Cylinders++
		case "translate":
			s.Translates++
		case "difference":
			s.Differences++
		case "union":
			s.Unions++
		}
	}
	return s
}

// Check performs a cheap structural validation before a script is handed to
// the modeling tool: brackets must balance and at least one solid must exist.
func Check(script string) error {
	var stack []rune
	var lines []int
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}

	for n, line := range strings.Split(stripComments(script), "\n") {
		for _, r := range line {
			switch r {
			case '(', '[', '{':
				stack = append(stack, r)
				lines = append(lines, n+1)
			case ')', ']', '}':
				if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
					return fmt.Errorf("line %d: unexpected %q", n+1, r)
				}
				stack = stack[:len(stack)-1]
				lines = lines[:len(lines)-1]
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("line %d: unclosed %q", lines[len(lines)-1], stack[len(stack)-1])
	}

	s := Parse(script)
	if s.Cubes+s.Cylinders == 0 {
		return fmt.Errorf("script defines no solids")
	}
	return nil
}

// stripComments removes // line comments, keeping line numbering intact.
func stripComments(script string) string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
