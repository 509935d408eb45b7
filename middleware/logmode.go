package middleware

import (
	"fmt"
	"strings"
)

// ClientLogMode selects what the logging middleware records.
type ClientLogMode int

const (
	LogNone ClientLogMode = iota
	LogRequest
	LogRequestWithBody
	LogResponse
	LogResponseWithBody
	LogRequestAndResponse
	LogRequestAndResponseWithBody
)

var logModeNames = map[ClientLogMode]string{
	LogNone:                       "none",
	LogRequest:                    "request",
	LogRequestWithBody:            "request_with_body",
	LogResponse:                   "response",
	LogResponseWithBody:           "response_with_body",
	LogRequestAndResponse:         "request_and_response",
	LogRequestAndResponseWithBody: "request_and_response_with_body",
}

func (m ClientLogMode) String() string {
	if s, ok := logModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ClientLogMode(%d)", int(m))
}

// LogsRequest reports whether requests are logged.
func (m ClientLogMode) LogsRequest() bool {
	return m == LogRequest || m == LogRequestWithBody || m == LogRequestAndResponse || m == LogRequestAndResponseWithBody
}

// LogsRequestBody reports whether request bodies are logged.
func (m ClientLogMode) LogsRequestBody() bool {
	return m == LogRequestWithBody || m == LogRequestAndResponseWithBody
}

// LogsResponse reports whether responses are logged.
func (m ClientLogMode) LogsResponse() bool {
	return m == LogResponse || m == LogResponseWithBody || m == LogRequestAndResponse || m == LogRequestAndResponseWithBody
}

// LogsResponseBody reports whether response bodies are logged.
func (m ClientLogMode) LogsResponseBody() bool {
	return m == LogResponseWithBody || m == LogRequestAndResponseWithBody
}

// ParseClientLogMode parses the names returned by [ClientLogMode.String].
func ParseClientLogMode(s string) (ClientLogMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LogNone, nil
	}
	for m, name := range logModeNames {
		if name == s {
			return m, nil
		}
	}
	return LogNone, fmt.Errorf("invalid client log mode %q", s)
}
