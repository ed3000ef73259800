package display

import (
	"fmt"
	"strings"
)

// Environment describes which display mechanism the host provides
type Environment int

const (
	// Console hosts only offer a text stream
	Console Environment = iota
	// Notebook hosts accept markup and script display instructions
	Notebook
)

// DisplayEnvVar overrides environment detection when set
const DisplayEnvVar = "NBTEST_DISPLAY"

// kernelMarkers are set by Jupyter in the environment of kernel processes
var kernelMarkers = []string{"JPY_PARENT_PID", "JPY_SESSION_NAME"}

func (e Environment) String() string {
	if e == Notebook {
		return "notebook"
	}
	return "console"
}

// ParseEnvironment parses a display name. "auto" (or an empty string)
// resolves through detect.
func ParseEnvironment(name string, detect func() Environment) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "console", "terminal", "plain", "text":
		return Console, nil
	case "notebook", "rich", "html":
		return Notebook, nil
	case "", "auto":
		if detect == nil {
			return Console, nil
		}
		return detect(), nil
	}
	return Console, fmt.Errorf("unknown display %q (use auto, console or notebook)", name)
}

// Detect inspects the process environment through getenv
func Detect(getenv func(string) string) Environment {
	if v := getenv(DisplayEnvVar); v != "" {
		if env, err := ParseEnvironment(v, nil); err == nil && strings.ToLower(v) != "auto" {
			return env
		}
	}
	for _, key := range kernelMarkers {
		if getenv(key) != "" {
			return Notebook
		}
	}
	return Console
}
