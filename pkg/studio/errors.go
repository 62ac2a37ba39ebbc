package studio

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyError is a server-reported failure caused by a missing external
// codec tool (ffmpeg). It is a distinct error kind because the user can fix
// it without touching this client: install the tool or re-encode the source.
type DependencyError struct {
	Message    string
	InstallURL string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("studio: missing server dependency: %s", e.Message)
}

// Remediation returns human-readable steps to get past the failure.
func (e *DependencyError) Remediation() string {
	var b strings.Builder
	b.WriteString("The studio service needs ffmpeg to process this format.\n")
	if e.InstallURL != "" {
		b.WriteString(fmt.Sprintf(" - install ffmpeg on the server: %s\n", e.InstallURL))
	} else {
		b.WriteString(" - install ffmpeg on the server: https://ffmpeg.org/download.html\n")
	}
	b.WriteString(" - or convert the source to WAV, which is supported without ffmpeg")
	return b.String()
}

// ServerError is any other failure reported by the service. The message is
// surfaced verbatim.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("studio: server error (%d): %s", e.StatusCode, e.Message)
}

// TransportError wraps a network or protocol failure where no server response
// was decoded.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("studio: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsDependencyMissing reports whether err is a DependencyError.
func IsDependencyMissing(err error) bool {
	var depErr *DependencyError
	return errors.As(err, &depErr)
}
