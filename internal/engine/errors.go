package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/ollama/ollama/api"
)

// InstallationError signals that the engine binary is missing and could not be installed.
type InstallationError struct {
	Reason string
	Err    error
}

func (e *InstallationError) Error() string {
	if e.Err != nil {
		return "installation failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "installation failed: " + e.Reason
}

func (e *InstallationError) Unwrap() error { return e.Err }

// IsInstallation reports whether err is an *InstallationError.
func IsInstallation(err error) bool {
	var e *InstallationError
	return errors.As(err, &e)
}

// ConnectivityError signals that the engine endpoint could not be reached.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine unreachable at %s: %v", e.URL, e.Err)
	}
	return "engine unreachable at " + e.URL
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is a *ConnectivityError.
func IsConnectivity(err error) bool {
	var e *ConnectivityError
	return errors.As(err, &e)
}

// TimeoutError signals that an operation exceeded its deadline.
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
	}
	return e.Op + " timed out"
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a *TimeoutError.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// DownloadError signals a failed model pull.
type DownloadError struct {
	Model string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Model, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// IsDownload reports whether err is a *DownloadError.
func IsDownload(err error) bool {
	var e *DownloadError
	return errors.As(err, &e)
}

// ModelUnavailableError signals that no candidate model could be made available.
type ModelUnavailableError struct {
	Candidates []string
	Err        error
}

func (e *ModelUnavailableError) Error() string {
	msg := "no model available"
	if len(e.Candidates) > 0 {
		msg += " (tried " + strings.Join(e.Candidates, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// IsModelUnavailable reports whether err is a *ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var e *ModelUnavailableError
	return errors.As(err, &e)
}

// GenerationError is any other failure of a generate call.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("generate with %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("generate: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGeneration reports whether err is a *GenerationError.
func IsGeneration(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}

// Classify maps a raw transport or API error onto the taxonomy. Errors that
// are already classified pass through unchanged; nil stays nil.
func Classify(err error, op, baseURL string) error {
	if err == nil {
		return nil
	}
	if IsInstallation(err) || IsConnectivity(err) || IsTimeout(err) ||
		IsDownload(err) || IsModelUnavailable(err) || IsGeneration(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	var se api.StatusError
	if errors.As(err, &se) {
		return &GenerationError{Err: err}
	}
	var ue *url.Error
	var oe *net.OpError
	if errors.As(err, &ue) || errors.As(err, &oe) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &ConnectivityError{URL: baseURL, Err: err}
	}
	return &GenerationError{Err: err}
}
