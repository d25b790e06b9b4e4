package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	base := "http://localhost:11434"
	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"deadline", context.DeadlineExceeded, IsTimeout},
		{"wrapped deadline", &url.Error{Op: "Post", URL: base, Err: context.DeadlineExceeded}, IsTimeout},
		{"refused", &url.Error{Op: "Post", URL: base, Err: errors.New("connection refused")}, IsConnectivity},
		{"eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), IsConnectivity},
		{"status", api.StatusError{StatusCode: 500, ErrorMessage: "boom"}, IsGeneration},
		{"other", errors.New("weird"), IsGeneration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.is(Classify(tc.err, "generate", base)))
		})
	}
	assert.Nil(t, Classify(nil, "x", base))
}

func TestClassify_PassesThroughTyped(t *testing.T) {
	in := &DownloadError{Model: "m", Err: errors.New("x")}
	assert.Same(t, in, Classify(in, "pull", "u"))
}

func TestErrorHelpers(t *testing.T) {
	inner := errors.New("inner")
	errs := []error{
		&InstallationError{Reason: "unsupported platform"},
		&ConnectivityError{URL: "u", Err: inner},
		&TimeoutError{Op: "pull", Err: inner},
		&DownloadError{Model: "m", Err: inner},
		&ModelUnavailableError{Candidates: []string{"a", "b"}, Err: inner},
		&GenerationError{Err: inner},
	}
	checks := []func(error) bool{IsInstallation, IsConnectivity, IsTimeout, IsDownload, IsModelUnavailable, IsGeneration}
	for i, err := range errs {
		wrapped := fmt.Errorf("ctx: %w", err)
		for j, check := range checks {
			assert.Equal(t, i == j, check(wrapped), "error %d check %d", i, j)
		}
		assert.NotEmpty(t, err.Error())
	}
	assert.ErrorIs(t, errs[1], inner)
	assert.Contains(t, errs[4].Error(), "a, b")
}
