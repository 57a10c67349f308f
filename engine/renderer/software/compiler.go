package software

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

type uniformDecl struct {
	name     string
	glslType string
	count    int
}

type compileResult struct {
	uniforms []uniformDecl
	blocks   []string
	errors   []diagnostic
}

type diagnostic struct {
	line      int
	character int
	message   string
}

var (
	uniformRe = regexp.MustCompile(`^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\w+)\s*\])?\s*;`)
	blockRe   = regexp.MustCompile(`^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(\w+)\s*\{?\s*$`)
	definedRe = regexp.MustCompile(`^(!)?\s*defined\s*\(?\s*(\w+)\s*\)?$`)
	constRe   = regexp.MustCompile(`^\s*const\s+int\s+(\w+)\s*=\s*(-?\d+)\s*;`)
)

// scan runs a small preprocessor over source and collects the declared
// uniforms and uniform blocks of the active branches. Lines are numbered from
// 1 and renumbered by #line directives.
func scan(source string) compileResult {
	var res compileResult

	defines := map[string]string{}
	// each entry records whether the enclosing branch is active and whether
	// any branch of the chain has been taken
	type cond struct{ active, taken, parent bool }
	var stack []cond
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	lines := strings.Split(source, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	hasVersion := false
	lineNumber := 1
	for _, raw := range lines {
		current := lineNumber
		lineNumber++

		line := raw
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			directive, rest := splitDirective(trimmed)
			switch directive {
			case "ifdef", "ifndef", "if":
				parent := active()
				v := evalCondition(directive, rest, defines)
				stack = append(stack, cond{active: parent && v, taken: v, parent: parent})
			case "elif":
				if len(stack) == 0 {
					res.errors = append(res.errors, diagnostic{current, -1, "#elif without #if"})
					continue
				}
				top := &stack[len(stack)-1]
				v := !top.taken && evalCondition("if", rest, defines)
				top.active = top.parent && v
				top.taken = top.taken || v
			case "else":
				if len(stack) == 0 {
					res.errors = append(res.errors, diagnostic{current, -1, "#else without #if"})
					continue
				}
				top := &stack[len(stack)-1]
				top.active = top.parent && !top.taken
				top.taken = true
			case "endif":
				if len(stack) == 0 {
					res.errors = append(res.errors, diagnostic{current, -1, "#endif without #if"})
					continue
				}
				stack = stack[:len(stack)-1]
			case "line":
				if !active() {
					continue
				}
				fields := strings.Fields(rest)
				if len(fields) > 0 {
					if n, err := strconv.Atoi(fields[0]); err == nil {
						lineNumber = n
					}
				}
			case "version":
				hasVersion = true
			case "define":
				if !active() {
					continue
				}
				fields := strings.SplitN(rest, " ", 2)
				if len(fields) > 0 && fields[0] != "" {
					value := ""
					if len(fields) == 2 {
						value = strings.TrimSpace(fields[1])
					}
					defines[fields[0]] = value
				}
			case "undef":
				if active() {
					delete(defines, strings.TrimSpace(rest))
				}
			case "error":
				if active() {
					column := strings.Index(raw, "#error")
					res.errors = append(res.errors, diagnostic{current, column, strings.TrimSpace(rest)})
				}
			}
			continue
		}

		if !active() {
			continue
		}

		// integer constants may size uniform arrays
		if m := constRe.FindStringSubmatch(line); m != nil {
			defines[m[1]] = m[2]
			continue
		}

		if m := uniformRe.FindStringSubmatch(line); m != nil {
			count := 0
			if m[3] != "" {
				n, err := strconv.Atoi(m[3])
				if err != nil {
					if v, ok := defines[m[3]]; ok {
						n, err = strconv.Atoi(v)
					}
				}
				if err != nil || n <= 0 {
					res.errors = append(res.errors, diagnostic{current, strings.Index(raw, m[3]), fmt.Sprintf("array size must be a positive integer constant: '%s'", m[3])})
					continue
				}
				count = n
			}
			res.uniforms = append(res.uniforms, uniformDecl{name: m[2], glslType: m[1], count: count})
			continue
		}
		if m := blockRe.FindStringSubmatch(line); m != nil {
			res.blocks = append(res.blocks, m[1])
		}
	}

	if len(stack) != 0 {
		res.errors = append(res.errors, diagnostic{lineNumber - 1, -1, "unterminated conditional directive"})
	}
	if !hasVersion {
		res.errors = append([]diagnostic{{1, -1, "missing #version directive"}}, res.errors...)
	}
	return res
}

func splitDirective(line string) (string, string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// evalCondition understands #ifdef, #ifndef, defined(X), !defined(X) and
// integer literals. Anything else counts as true.
func evalCondition(directive, expr string, defines map[string]string) bool {
	expr = strings.TrimSpace(expr)
	switch directive {
	case "ifdef":
		_, ok := defines[expr]
		return ok
	case "ifndef":
		_, ok := defines[expr]
		return !ok
	}

	andParts := strings.Split(expr, "&&")
	result := true
	for _, part := range andParts {
		part = strings.TrimSpace(part)
		if m := definedRe.FindStringSubmatch(part); m != nil {
			_, ok := defines[m[2]]
			if m[1] == "!" {
				ok = !ok
			}
			result = result && ok
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			result = result && n != 0
			continue
		}
		if v, ok := defines[part]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				result = result && n != 0
			}
		}
	}
	return result
}

// formatInfoLog renders diagnostics the way the configured vendor does, so
// the shader system's log parser can be exercised against every format.
func formatInfoLog(vendor metadata.DriverVendor, diags []diagnostic) string {
	var sb strings.Builder
	for _, d := range diags {
		switch vendor {
		case metadata.DriverVendorNvidia:
			fmt.Fprintf(&sb, "0(%d) : error C0000: %s\n", d.line, d.message)
		case metadata.DriverVendorATI, metadata.DriverVendorIntel:
			fmt.Fprintf(&sb, "ERROR: 0:%d: %s\n", d.line, d.message)
		default:
			column := d.character
			if column < 0 {
				column = 0
			}
			fmt.Fprintf(&sb, "0:%d(%d): error: %s\n", d.line, column, d.message)
		}
	}
	return sb.String()
}
