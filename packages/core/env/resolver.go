package env

import (
	"os"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver interpolates {{NAME}} references in environment values.
// {{NAME}} resolves against the resolver's variables, {{$NAME}} against
// the process environment. Unresolved references are left as written.
type Resolver struct {
	variables map[string]string
	getenv    func(string) string
	warnFunc  WarnFunc
}

// NewResolver creates a resolver reading the process environment
func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		getenv:    os.Getenv,
	}
}

// SetWarnFunc sets a function to be called for unresolved references
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.warnFunc = fn
}

// SetGetenv replaces the process environment lookup
func (r *Resolver) SetGetenv(fn func(string) string) {
	r.getenv = fn
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// SetVariables adds vars, replacing variables of the same name
func (r *Resolver) SetVariables(vars map[string]string) {
	for k, v := range vars {
		r.variables[k] = v
	}
}

// Resolve replaces every reference in input
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if name, ok := strings.CutPrefix(expr, "$"); ok {
			if val := r.getenv(name); val != "" {
				return val
			}
			r.warn("unresolved environment variable: $%s", name)
			return match
		}

		if val, ok := r.variables[expr]; ok {
			return val
		}
		r.warn("unresolved variable: %s", expr)
		return match
	})
}

// ResolveAll resolves every value of values into a new map
func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}
