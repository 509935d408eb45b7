// Package widgets is a client for the Widgets service, in the shape a code
// generator emits on top of the operation pipeline: one stack template per
// operation, built once and executed for every call.
package widgets

import (
	"fmt"
)

// ServiceName identifies the service in traces and logs.
const ServiceName = "Widgets"

// ErrorTypeHeader carries the name of the error shape of a failed response.
const ErrorTypeHeader = "X-Error-Type"

// ClientTokenHeader carries the idempotency token of mutating operations.
const ClientTokenHeader = "X-Client-Token"

type Widget struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
	Version int    `json:"version"`
}

type GetWidgetInput struct {
	ID string
}

type GetWidgetOutput struct {
	Widget Widget
	ETag   string
}

type PutWidgetInput struct {
	ID    string
	Name  string
	Color string
	// DryRun validates the widget without storing it.
	DryRun bool
	// ClientToken makes retries of the same put idempotent. It is generated
	// when empty.
	ClientToken string
}

type PutWidgetOutput struct {
	Widget  Widget
	Created bool
}

type DeleteWidgetInput struct {
	ID          string
	ClientToken string
}

type DeleteWidgetOutput struct{}

// WidgetNotFound is returned when the requested widget does not exist.
type WidgetNotFound struct {
	Message  string `json:"message"`
	WidgetID string `json:"widgetId"`
}

func (e *WidgetNotFound) Error() string {
	return fmt.Sprintf("widget %q not found: %s", e.WidgetID, e.Message)
}

// ValidationError is returned when the service rejects the input.
type ValidationError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}
