package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// LookupFunc reports the value of a variable and whether it is set.
type LookupFunc func(key string) (string, bool)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - `$VAR` and `${VAR}` are expanded from the environment.
//   - `${VAR:-fallback}` expands to fallback when VAR is unset or empty.
//   - If `${VAR}` is present but VAR is missing from the environment, the
//     error wraps ErrMissingEnv and names every missing variable.
//   - `$$` emits a literal `$` (escape hatch).
func ExpandEnvStrict(s string) (string, error) {
	return ExpandStrict(s, os.LookupEnv)
}

// ExpandStrict is ExpandEnvStrict with a custom variable source.
func ExpandStrict(s string, lookup LookupFunc) (string, error) {
	const dollarSentinel = "\x00RS_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if match[2] != "" {
			continue
		}
		if _, ok := lookup(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	s = os.Expand(s, func(name string) string {
		key, fallback, hasFallback := strings.Cut(name, ":-")
		v, ok := lookup(key)
		if hasFallback && (!ok || v == "") {
			return fallback
		}
		return v
	})
	s = strings.ReplaceAll(s, dollarSentinel, "$")
	return s, nil
}
