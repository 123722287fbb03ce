package naming

import (
	"fmt"
	"regexp"
	"strings"
)

var templateToken = regexp.MustCompile(`\{([^{}]+)\}`)

// RenderTemplate substitutes {key} and {key[sub]} tokens from the
// namespace. Unknown tokens are an error so a misconfigured template
// fails loudly instead of producing half-rendered names.
func RenderTemplate(template string, namespace map[string]string) (string, error) {
	var missing []string
	rendered := templateToken.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		if value, ok := namespace[key]; ok {
			return value
		}
		missing = append(missing, key)
		return token
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q references unknown keys: %s", template, strings.Join(missing, ", "))
	}
	return rendered, nil
}
