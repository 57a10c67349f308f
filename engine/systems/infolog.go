package systems

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

const digits = "0123456789"

// leadingNumber parses the digits at the start of s.
func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && strings.IndexByte(digits, s[end]) >= 0 {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

/**
 * @brief Extracts line, column and offending token of each diagnostic of a
 * driver info log. The format depends on the driver vendor; lines that do not
 * match it are ignored. Entries are sorted by line.
 */
func ParseInfoLog(vendor metadata.DriverVendor, infoLog string) []metadata.InfoLogEntry {
	var out []metadata.InfoLogEntry
	for _, line := range splitLines(infoLog) {
		switch vendor {
		case metadata.DriverVendorNvidia:
			// <shader>(<line>) : <error>
			open := strings.IndexByte(line, '(')
			if open < 0 {
				continue
			}
			lineNum, ok := leadingNumber(line[open+1:])
			if !ok {
				continue
			}
			// the faulty token tends to be quoted at the end
			var token string
			if last := strings.LastIndexByte(line, '"'); last > open {
				if first := strings.LastIndexByte(line[:last], '"'); first > open {
					token = line[first+1 : last]
				}
			}
			out = append(out, metadata.InfoLogEntry{Line: lineNum, Character: -1, Token: token, Error: line})

		case metadata.DriverVendorMesa:
			// <shader>:<line>(<character>): <error>
			colon := strings.IndexByte(line, ':')
			if colon < 0 {
				continue
			}
			lineNum, ok := leadingNumber(line[colon+1:])
			if !ok {
				continue
			}
			character := -1
			if open := strings.IndexByte(line, '('); open >= 0 {
				if character, ok = leadingNumber(line[open+1:]); !ok {
					continue
				}
			}
			out = append(out, metadata.InfoLogEntry{Line: lineNum, Character: character, Error: line})

		case metadata.DriverVendorATI, metadata.DriverVendorIntel:
			// ERROR: <shader>:<line>: <error>
			rest := strings.TrimLeft(line, "ERO: ")
			rest = strings.TrimLeft(rest, digits)
			first := strings.IndexAny(rest, digits)
			if first < 0 {
				continue
			}
			rest = rest[first:]
			lineNum, ok := leadingNumber(rest)
			if !ok || len(strings.TrimLeft(rest, digits)) == 0 {
				continue
			}
			out = append(out, metadata.InfoLogEntry{Line: lineNum, Character: -1, Error: line})

		default:
			core.LogWarn("Unable to parse shader info log errors: unknown format")
			return out
		}
	}

	slices.SortStableFunc(out, func(a, b metadata.InfoLogEntry) int {
		return a.Line - b.Line
	})
	return out
}

const lineNumberWidth = 4

// errorMarker draws the row under a faulty source line.
func errorMarker(line string, entry metadata.InfoLogEntry) string {
	var sb strings.Builder
	tabs := len(line) - len(strings.TrimLeft(line, "\t"))
	pad := func(i int) {
		if i < tabs {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte('-')
		}
	}

	switch {
	case entry.Character >= 0 && entry.Character < len(line):
		sb.WriteString(strings.Repeat("-", lineNumberWidth+2))
		for i := 0; i < entry.Character; i++ {
			pad(i)
		}
		sb.WriteByte('^')
		sb.WriteString(strings.Repeat("-", len(line)-entry.Character-1))

	case len(line) > 0 && entry.Token != "":
		sb.WriteString(strings.Repeat("-", lineNumberWidth+2))
		for i := 0; i < len(line); i++ {
			if i >= tabs && strings.HasPrefix(line[i:], entry.Token) {
				sb.WriteByte('^')
				continue
			}
			pad(i)
		}

	default:
		sb.WriteString(strings.Repeat("^", lineNumberWidth+2+len(line)))
	}
	return sb.String()
}

/**
 * @brief Renders source with line numbers as assigned by #line directives and
 * the parsed diagnostics under the lines they refer to. entries must be sorted
 * by line.
 */
func PrintShaderSource(source string, entries []metadata.InfoLogEntry) string {
	var sb strings.Builder
	next := 0
	lineNumber := 1
	for _, line := range splitLines(source) {
		current := lineNumber
		lineNumber++
		if strings.HasPrefix(line, "#line ") {
			if n, ok := leadingNumber(line[len("#line "):]); ok {
				lineNumber = n
			}
		}

		fmt.Fprintf(&sb, "%*d: %s\n", lineNumberWidth, current, line)

		for next < len(entries) && entries[next].Line < current {
			next++
		}
		for next < len(entries) && entries[next].Line == current {
			sb.WriteString(errorMarker(line, entries[next]))
			sb.WriteString("\n" + entries[next].Error + "\n\n")
			next++
		}
	}
	return sb.String()
}

/** @brief Logs the source of a stage that failed to compile, annotated with its info log. */
func (ss *ShaderSystem) logShaderSource(name, source, infoLog string) {
	entries := ParseInfoLog(ss.caps.Vendor, infoLog)
	core.LogWarn("Source for shader program %s:\n%s", name, PrintShaderSource(source, entries))
}
