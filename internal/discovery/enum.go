package discovery

import (
	"fmt"
	"strings"
)

const enumPrefix = "enum("

// ParseEnum reads the constants out of a MySQL enum column type such as
// enum('a','b','c').
func ParseEnum(columnType string) ([]string, error) {
	s := strings.TrimSpace(columnType)
	if len(s) < len(enumPrefix)+1 || !strings.EqualFold(s[:len(enumPrefix)], enumPrefix) || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("%w: %q is not an enum type", ErrEnumProbe, columnType)
	}

	body := s[len(enumPrefix) : len(s)-1]
	values := []string{}
	for _, token := range strings.Split(body, ",") {
		token = strings.TrimSpace(token)
		token = strings.TrimPrefix(token, "'")
		token = strings.TrimSuffix(token, "'")
		if token == "" {
			continue
		}
		values = append(values, token)
	}
	return values, nil
}
