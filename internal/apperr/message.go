package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// AuthRemediation is appended to every authentication failure.
const AuthRemediation = "Run `gtasks-mcp auth login` to authorize access to Google Tasks, then retry."

// UserMessage renders err for the agent.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		notFound   *NotFoundError
		auth       *AuthError
		upstream   *UpstreamError
		partial    *PartialFailure
	)

	switch {
	case errors.As(err, &partial):
		var sb strings.Builder
		fmt.Fprintf(&sb, "Error: %s failed for every list.\n", partial.Op)
		for _, f := range partial.Failures {
			fmt.Fprintf(&sb, "- %s: %s\n", f.Source, firstLine(f.Err))
		}
		sb.WriteString("Check the list IDs and your authorization, then retry.")
		return sb.String()
	case errors.As(err, &validation):
		msg := "Error: " + capitalize(validation.Error()) + "."
		if validation.Hint != "" {
			msg += " " + validation.Hint
		}
		return msg
	case errors.As(err, &auth):
		return "Error: " + capitalize(auth.Error()) + ". " + AuthRemediation
	case errors.As(err, &notFound):
		return fmt.Sprintf("Error: %s %q was not found. Verify the ID with tasks_list_task_lists or tasks_list_tasks and try again.",
			capitalize(notFound.Resource), notFound.ID)
	case errors.Is(err, ErrValidation):
		return "Error: " + capitalize(err.Error()) + "."
	case errors.As(err, &upstream):
		hint := "Please try again later."
		if upstream.Status == 429 {
			hint = "The Google Tasks API is rate limiting requests; wait a moment before retrying."
		} else if upstream.Status == 400 {
			hint = "Check the request parameters and try again."
		}
		return "Error: " + capitalize(upstream.Error()) + ". " + hint
	default:
		return "Error: " + capitalize(err.Error()) + ". Please try again."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstLine(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
