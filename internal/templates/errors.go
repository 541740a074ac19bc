package templates

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("invalid params")

// LoadError reports a template document that cannot be served. One bad
// template fails the whole document.
type LoadError struct {
	Source     string
	TemplateID string
	Reason     string
	Err        error
}

func (e *LoadError) Error() string {
	msg := "template load failed"
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.TemplateID != "" {
		msg += fmt.Sprintf(": template %s", e.TemplateID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }
