package config

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charleschow/polyclob/internal/telemetry"
)

// LoadEnvFile reads KEY=VALUE pairs from path and exports the ones not
// already present in the environment. It never fails: a missing file is
// the common case and a malformed line only drops that line. Values are
// never logged. Returns the number of variables applied.
func LoadEnvFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			telemetry.Debugf("envfile: cannot read %s: %v", path, err)
		}
		return 0
	}

	vars, err := godotenv.Unmarshal(literalValues(string(data)))
	if err != nil {
		vars = parseLines(string(data))
	}

	applied := 0
	for key, value := range vars {
		if key == "" || value == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			continue
		}
		applied++
	}

	telemetry.Debugf("envfile: applied %d of %d variables from %s", applied, len(vars), path)
	return applied
}

// parseLines is the fallback when the file as a whole does not parse.
func parseLines(data string) map[string]string {
	vars := make(map[string]string)
	skipped := 0
	for _, raw := range strings.Split(data, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kv, err := godotenv.Unmarshal(literalValue(line))
		if err != nil {
			skipped++
			continue
		}
		maps.Copy(vars, kv)
	}
	if skipped > 0 {
		telemetry.Debugf("envfile: skipped %d malformed lines", skipped)
	}
	return vars
}

// literalValues rewrites each assignment so godotenv reads its value
// verbatim: no ${VAR} expansion and no inline " #" comments.
func literalValues(data string) string {
	lines := strings.Split(data, "\n")
	for i, line := range lines {
		lines[i] = literalValue(line)
	}
	return strings.Join(lines, "\n")
}

// literalValue single-quotes the value of one KEY=VALUE line. Double
// quotes are swapped for single ones so only the quotes are stripped.
// Values godotenv cannot hold in single quotes are left as written.
func literalValue(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line
	}
	key, value, ok := strings.Cut(trimmed, "=")
	if !ok {
		return line
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
		if strings.Contains(value, `"`) {
			return line
		}
	} else if strings.HasPrefix(value, "'") || strings.HasPrefix(value, `"`) {
		return line
	}
	if value == "" || strings.ContainsAny(value, `'\`) {
		return line
	}
	return key + "='" + value + "'"
}
