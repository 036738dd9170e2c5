package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

// upstreamError classifies a failed provider call. reason should be the
// provider's own message when one was returned.
func upstreamError(provider string, status int, reason string, err error) error {
	reason = strings.TrimSpace(reason)
	if reason == "" && status > 0 {
		reason = fmt.Sprintf("status %d %s", status, http.StatusText(status))
	}
	if reason == "" && err != nil {
		reason = err.Error()
	}
	return apperr.Upstream(provider, status, reason, err)
}

// transportError wraps a failure that happened before any response arrived.
// Context cancellation is passed through untouched.
func transportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperr.Upstream(provider, 0, fmt.Sprintf("request failed: %v", err), err)
}

func malformedError(provider string, status int, err error) error {
	return apperr.Upstream(provider, status, fmt.Sprintf("malformed response body: %v", err), err)
}
