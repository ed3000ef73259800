package env

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolverResolve(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]string
		environ   map[string]string
		expected  string
		warnings  int
	}{
		{
			name:     "no references",
			input:    "postgres://localhost/db",
			expected: "postgres://localhost/db",
		},
		{
			name:      "variable",
			input:     "postgres://{{DB_HOST}}/db",
			variables: map[string]string{"DB_HOST": "db.internal"},
			expected:  "postgres://db.internal/db",
		},
		{
			name:      "spaces inside braces",
			input:     "{{ DB_HOST }}:{{PORT}}",
			variables: map[string]string{"DB_HOST": "db", "PORT": "5432"},
			expected:  "db:5432",
		},
		{
			name:     "process environment",
			input:    "{{$HOME}}/.cache",
			environ:  map[string]string{"HOME": "/home/ci"},
			expected: "/home/ci/.cache",
		},
		{
			name:     "unresolved variable kept",
			input:    "{{MISSING}}",
			expected: "{{MISSING}}",
			warnings: 1,
		},
		{
			name:     "unresolved environment variable kept",
			input:    "{{$MISSING}}-{{ALSO}}",
			expected: "{{$MISSING}}-{{ALSO}}",
			warnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warnings []string
			r := NewResolver()
			r.SetVariables(tt.variables)
			r.SetGetenv(func(key string) string { return tt.environ[key] })
			r.SetWarnFunc(func(format string, args ...any) {
				warnings = append(warnings, fmt.Sprintf(format, args...))
			})

			assert.Equal(t, tt.expected, r.Resolve(tt.input))
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func TestResolverResolveAll(t *testing.T) {
	r := NewResolver()
	r.SetVariables(map[string]string{"HOST": "db"})
	r.SetGetenv(func(string) string { return "" })

	in := map[string]string{"DSN": "pg://{{HOST}}", "PLAIN": "x"}
	out := r.ResolveAll(in)

	assert.Equal(t, map[string]string{"DSN": "pg://db", "PLAIN": "x"}, out)
	assert.Equal(t, "pg://{{HOST}}", in["DSN"])
}
