package semantic

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// Overrides maps a column key to a forced role. A key is either a 1-based
// column number or a header name (matched case-insensitively).
type Overrides map[string]model.Role

// LoadOverrides reads a YAML mapping of column keys to roles:
//
//	"Txn Amt": amount
//	"3": currency
//	Memo: ignore
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "semantic: read overrides %s", path)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "semantic: parse overrides %s", path)
	}
	out := make(Overrides, len(raw))
	for key, value := range raw {
		role, err := model.ParseRole(value)
		if err != nil {
			return nil, eris.Wrapf(err, "semantic: override %q", key)
		}
		out[strings.TrimSpace(key)] = role
	}
	return out, nil
}

// ParseOverride parses a "N=role" flag value.
func ParseOverride(s string) (string, model.Role, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", eris.Errorf("semantic: override %q must look like COLUMN=ROLE", s)
	}
	role, err := model.ParseRole(value)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(key), role, nil
}

// Merge returns o with other's entries applied on top.
func (o Overrides) Merge(other Overrides) Overrides {
	out := make(Overrides, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Resolve maps keys onto 0-based column indexes of headers. Numeric keys
// are taken as given even when out of range; assignment skips those.
func (o Overrides) Resolve(headers []string) (map[int]model.Role, error) {
	if len(o) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[int]model.Role, len(o))
	for _, key := range keys {
		if n, err := strconv.Atoi(key); err == nil {
			if n < 1 {
				return nil, eris.Errorf("semantic: column number %d must be 1 or greater", n)
			}
			out[n-1] = o[key]
			continue
		}
		idx := headerIndex(headers, key)
		if idx < 0 {
			return nil, eris.Errorf("semantic: override column %q not found in headers", key)
		}
		out[idx] = o[key]
	}
	return out, nil
}

func headerIndex(headers []string, name string) int {
	want := model.NormalizeHeaderForMatch(name)
	for i, h := range headers {
		if model.NormalizeHeaderForMatch(h) == want {
			return i
		}
	}
	return -1
}

// Applied renders resolved overrides keyed by 1-based column number.
func Applied(overrides map[int]model.Role) map[string]model.Role {
	out := make(map[string]model.Role, len(overrides))
	for idx, role := range overrides {
		out[strconv.Itoa(idx+1)] = role
	}
	return out
}
