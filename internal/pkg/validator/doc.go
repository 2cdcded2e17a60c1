// Package validator wraps go-playground/validator v10 behind a small
// interface. Failures come back as V10ValidationError, a snake_case field to
// English message map that the HTTP layer returns as is.
package validator
