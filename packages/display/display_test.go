package display

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected Environment
	}{
		{"empty environment", nil, Console},
		{"jupyter kernel", map[string]string{"JPY_PARENT_PID": "1234"}, Notebook},
		{"jupyter session", map[string]string{"JPY_SESSION_NAME": "x.ipynb"}, Notebook},
		{"override to console", map[string]string{"JPY_PARENT_PID": "1", DisplayEnvVar: "console"}, Console},
		{"override to notebook", map[string]string{DisplayEnvVar: "notebook"}, Notebook},
		{"auto override falls through", map[string]string{DisplayEnvVar: "auto", "JPY_PARENT_PID": "1"}, Notebook},
		{"bogus override ignored", map[string]string{DisplayEnvVar: "bogus"}, Console},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Detect(envFrom(tt.env)))
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	detectNotebook := func() Environment { return Notebook }

	env, err := ParseEnvironment("rich", nil)
	require.NoError(t, err)
	assert.Equal(t, Notebook, env)

	env, err = ParseEnvironment("Terminal", nil)
	require.NoError(t, err)
	assert.Equal(t, Console, env)

	env, err = ParseEnvironment("auto", detectNotebook)
	require.NoError(t, err)
	assert.Equal(t, Notebook, env)

	env, err = ParseEnvironment("", nil)
	require.NoError(t, err)
	assert.Equal(t, Console, env)

	_, err = ParseEnvironment("gui", nil)
	assert.Error(t, err)

	assert.Equal(t, "notebook", Notebook.String())
	assert.Equal(t, "console", Console.String())
}

func TestStreamPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewStreamPublisher(&buf)

	require.NoError(t, p.PublishHTML(`<div id="x"></div>`))
	require.NoError(t, p.PublishJavaScript(`delete document.x;`))

	var bundles []Bundle
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var b Bundle
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &b))
		bundles = append(bundles, b)
	}

	require.Len(t, bundles, 2)
	assert.Equal(t, `<div id="x"></div>`, bundles[0].Data[MIMEHTML])
	assert.Equal(t, `delete document.x;`, bundles[1].Data[MIMEJavaScript])
	assert.NotNil(t, bundles[0].Metadata)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestStreamPublisher_WriteError(t *testing.T) {
	p := NewStreamPublisher(failingWriter{})
	err := p.PublishHTML("<b>x</b>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), MIMEHTML)
}
