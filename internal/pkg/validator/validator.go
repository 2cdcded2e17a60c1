package validator

// Validator checks struct tags and returns a descriptive error on failure.
type Validator interface {
	Validate(data any) error
}
