package middleware

import (
	"fmt"
	"regexp"
)

// Form field checks for analysis submissions. Values are never touched:
// they reach the prompt exactly as the user typed them.

const MaxFields = 16

var fieldName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// CheckFields rejects forms with too many or oddly named fields and returns
// the values unchanged.
func CheckFields(fields map[string]string) (map[string]string, error) {
	if len(fields) > MaxFields {
		return nil, fmt.Errorf("too many form fields (max %d)", MaxFields)
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if !fieldName.MatchString(k) {
			return nil, fmt.Errorf("invalid field name %q", k)
		}
		out[k] = v
	}
	return out, nil
}
