package tags

import "fmt"

const (
	CodeTagCount   = "TAG_COUNT"
	CodeUnknownTag = "UNKNOWN_TAG"
)

// FieldError is a single validation failure, keyed to the input field it
// concerns so callers can surface it next to the field.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Validator checks a Resolution against the forum's tag policy. It reports
// every failure it finds instead of stopping at the first one, and never
// uses errors for control flow.
type Validator struct {
	MaxTags int
}

func (v Validator) Validate(res Resolution) []FieldError {
	var errs []FieldError
	max := v.MaxTags
	if max <= 0 {
		max = 5
	}

	switch {
	case len(res.Candidates) == 0:
		errs = append(errs, FieldError{
			Field:   "tagNames",
			Code:    CodeTagCount,
			Message: "at least one tag is required",
		})
	case len(res.Candidates) > max:
		errs = append(errs, FieldError{
			Field:   "tagNames",
			Code:    CodeTagCount,
			Message: fmt.Sprintf("no more than %d tags are allowed", max),
		})
	}

	for _, name := range res.Unknown {
		errs = append(errs, FieldError{
			Field:   "tagNames",
			Code:    CodeUnknownTag,
			Message: fmt.Sprintf("tag %q does not exist", name),
		})
	}
	return errs
}
