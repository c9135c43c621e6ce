// Package validator checks `validate` struct tags and reports failures as a
// field to message map keyed by the snake_case field name.
package validator

type Validator interface {
	Validate(data any) error
}
