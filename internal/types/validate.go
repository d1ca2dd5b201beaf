package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldErrors maps a JSON field path to a human readable violation.
type FieldErrors map[string]string

// Validator is implemented by every fixed-schema relay request.
type Validator interface {
	Validate() FieldErrors
}

// fieldChecker accumulates the first violation per field.
type fieldChecker struct {
	errs FieldErrors
}

func (c *fieldChecker) add(field, msg string) {
	if c.errs == nil {
		c.errs = FieldErrors{}
	}
	if _, exists := c.errs[field]; !exists {
		c.errs[field] = msg
	}
}

func (c *fieldChecker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, "must not be blank")
	}
}

// maxLen counts characters, not bytes.
func (c *fieldChecker) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		c.add(field, fmt.Sprintf("must not exceed %d characters", n))
	}
}

func (c *fieldChecker) text(field, value string, n int) {
	c.required(field, value)
	c.maxLen(field, value, n)
}

func (c *fieldChecker) requiredInt(field string, v *int, minVal int) {
	if v == nil {
		c.add(field, "is required")
		return
	}
	c.minInt(field, v, minVal)
}

func (c *fieldChecker) minInt(field string, v *int, minVal int) {
	if v != nil && *v < minVal {
		c.add(field, fmt.Sprintf("must be at least %d", minVal))
	}
}

func (c *fieldChecker) maxInt(field string, v *int, maxVal int) {
	if v != nil && *v > maxVal {
		c.add(field, fmt.Sprintf("must not exceed %d", maxVal))
	}
}

func (c *fieldChecker) result() FieldErrors {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
