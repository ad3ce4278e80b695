package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gtasks-mcp/internal/apperr"
)

// Resource names used in NotFoundError.
const (
	resourceTask     = "task"
	resourceTaskList = "task list"
)

// rateLimitReasons are the 403 reasons the API uses for quota problems,
// which are not authorization failures.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
}

// mapError translates a Tasks API failure into the apperr taxonomy.
// op is the action in "failed to <op>" form, resource and id name the
// object a 404 refers to.
func mapError(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}

	var authErr *apperr.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &apperr.AuthError{Err: fmt.Errorf("token refresh rejected: %s", retrieveErrorText(retrieveErr))}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return &apperr.NotFoundError{Resource: resource, ID: id}
		case gerr.Code == http.StatusUnauthorized:
			return &apperr.AuthError{Err: errors.New(apiMessage(gerr))}
		case gerr.Code == http.StatusForbidden && !isRateLimited(gerr):
			return &apperr.AuthError{Err: errors.New(apiMessage(gerr))}
		case gerr.Code == http.StatusForbidden:
			return &apperr.UpstreamError{Op: op, Status: http.StatusTooManyRequests, Err: errors.New(apiMessage(gerr))}
		default:
			return &apperr.UpstreamError{Op: op, Status: gerr.Code, Err: errors.New(apiMessage(gerr))}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &apperr.UpstreamError{Op: op, Err: errors.New("request timed out")}
	}

	return &apperr.UpstreamError{Op: op, Err: err}
}

func isRateLimited(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}

func apiMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return gerr.Message
	}
	if body := strings.TrimSpace(gerr.Body); body != "" && len(body) < 200 {
		return body
	}
	return http.StatusText(gerr.Code)
}

func retrieveErrorText(err *oauth2.RetrieveError) string {
	if err.ErrorCode != "" {
		if err.ErrorDescription != "" {
			return err.ErrorCode + ": " + err.ErrorDescription
		}
		return err.ErrorCode
	}
	if err.Response != nil {
		return err.Response.Status
	}
	return "unknown error"
}
