package validation

import (
	"net/mail"
	"strings"
)

// Violation is a failed rule on one field. Code is an i18n key.
type Violation struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

type Violations []Violation

func (v Violations) Empty() bool { return len(v) == 0 }

func (v *Violations) add(field, code string) {
	*v = append(*v, Violation{Field: field, Code: code})
}

// Messages renders each violation as "field: message" using translate.
func (v Violations) Messages(translate func(code string) string) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = x.Field + ": " + translate(x.Code)
	}
	return out
}

// Basic validators
func Required(field, value string, v *Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required")
	}
}

// Email accepts an empty value; combine with Required when mandatory.
func Email(field, value string, v *Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "invalid_email")
	}
}

func PositiveInt(field string, val int, v *Violations) {
	if val <= 0 {
		v.add(field, "must_be_positive")
	}
}
