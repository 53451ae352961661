package decode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"cassa/internal/core"
)

// lookup finds name in r, accepting the camelCase key or its snake_case form.
func lookup(r Record, name string) (any, bool) {
	if v, ok := r[name]; ok && v != nil {
		return v, true
	}
	if v, ok := r[snake(name)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func snake(name string) string {
	var b strings.Builder
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// text returns the trimmed string form of a field, empty when absent.
// Numeric ids are kept as their decimal text.
func text(r Record, name string) string {
	v, ok := lookup(r, name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// decimal reads a non-negative amount given as a number or a string with a
// dot or comma separator.
func decimal(r Record, name string) (float64, bool, error) {
	v, ok := lookup(r, name)
	if !ok {
		return 0, false, nil
	}
	raw := strings.TrimSpace(stringify(v))
	if raw == "" {
		return 0, false, nil
	}
	f, err := core.ParseAmount(raw)
	if err != nil {
		return 0, true, core.Invalid(core.ReasonInvalidValue, name, fmt.Sprintf("%s must be a non-negative number, got %q", name, raw))
	}
	return f, true, nil
}

// rate reads a commission percentage, keeping every decimal it carries.
func rate(r Record, name string) (float64, bool, error) {
	v, ok := lookup(r, name)
	if !ok {
		return 0, false, nil
	}
	raw := strings.TrimSpace(stringify(v))
	if raw == "" {
		return 0, false, nil
	}
	f, err := core.ParseRate(raw)
	if err != nil {
		return 0, true, core.Invalid(core.ReasonInvalidValue, name, fmt.Sprintf("%s must be a non-negative percentage, got %q", name, raw))
	}
	return f, true, nil
}

func boolean(r Record, name string) (bool, error) {
	v, ok := lookup(r, name)
	if !ok {
		return false, nil
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	switch strings.ToLower(strings.TrimSpace(stringify(v))) {
	case "true", "1", "yes", "oui":
		return true, nil
	case "false", "0", "no", "non", "":
		return false, nil
	}
	return false, core.Invalid(core.ReasonInvalidValue, name, fmt.Sprintf("%s must be a boolean", name))
}
