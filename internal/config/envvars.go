// ABOUTME: Environment overrides for settings and ${VAR} expansion in the prompt
// ABOUTME: BIO_* variables override files; NO_COLOR is honoured when set to any value

package config

import (
	"fmt"
	"regexp"
	"strconv"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// applyEnv overrides s from BIO_* variables and NO_COLOR.
func applyEnv(s *Settings, getenv func(string) string) error {
	if v := getenv("BIO_PROMPT"); v != "" {
		s.Prompt = v
	}
	if v := getenv("BIO_ENCODING"); v != "" {
		s.Encoding = v
	}
	if v := getenv("BIO_KILL_SIGNAL"); v != "" {
		s.KillSignal = v
	}
	if v := getenv("BIO_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if getenv("NO_COLOR") != "" {
		s.NoColor = true
	}
	for name, dst := range map[string]*bool{
		"BIO_NO_COLOR": &s.NoColor,
		"BIO_PTY":      &s.PTY,
	} {
		v := getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

// expandEnv replaces ${VAR} with getenv(VAR). Unset vars become "".
func expandEnv(s string, getenv func(string) string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return getenv(varName)
	})
}
