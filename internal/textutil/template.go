package textutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches {key} placeholders in naming and substitution
// templates. Keys are lowercase identifiers such as {title} or {episode_title}.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Placeholders returns the unique placeholder keys referenced by a template,
// in sorted order.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	keys := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		keys = append(keys, match[1])
	}
	sort.Strings(keys)
	return keys
}

// RenderTemplate substitutes {key} placeholders with the supplied values.
// Every placeholder must have a value; referencing an absent key is an error
// naming the missing keys.
func RenderTemplate(template string, values map[string]string) (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(raw string) string {
		key := raw[1 : len(raw)-1]
		value, ok := values[key]
		if !ok {
			missing = append(missing, key)
			return raw
		}
		return value
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("template %q references missing keys [%s]", template, strings.Join(missing, ", "))
	}
	return rendered, nil
}

// ValidateTemplate checks that a template references only keys from the
// allowed set.
func ValidateTemplate(template string, allowed map[string]struct{}) error {
	var unknown []string
	for _, key := range Placeholders(template) {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("template %q references unknown keys [%s]", template, strings.Join(unknown, ", "))
	}
	return nil
}
