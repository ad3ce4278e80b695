package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/gtasks-mcp/internal/apperr"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // StatusSuccess or StatusError
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BulkResult represents the aggregated results of a batch operation
type BulkResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Succeeded returns the successful results in input order.
func (b BulkResult) Succeeded() []Result { return b.filter(StatusSuccess) }

// Failures returns the failed results in input order.
func (b BulkResult) Failures() []Result { return b.filter(StatusError) }

func (b BulkResult) filter(status string) []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// ParseStringOrArray parses a parameter that can be either a single string,
// a JSON-encoded array in a string, or an array of strings.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, apperr.Validation(paramName, "", "is required", "")
	}

	switch v := param.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, apperr.Validation(paramName, "", "cannot be empty", "")
		}
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			var items []interface{}
			if err := json.Unmarshal([]byte(v), &items); err == nil {
				return ParseStringOrArray(items, paramName)
			}
		}
		return []string{v}, nil
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return ParseStringOrArray(items, paramName)
	case []interface{}:
		if len(v) == 0 {
			return nil, apperr.Validation(paramName, "", "cannot be empty", "")
		}
		result := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, apperr.Validation(fmt.Sprintf("%s[%d]", paramName, i), fmt.Sprint(item), "must be a string", "")
			}
			if strings.TrimSpace(str) == "" {
				return nil, apperr.Validation(fmt.Sprintf("%s[%d]", paramName, i), "", "cannot be empty", "")
			}
			result = append(result, str)
		}
		return result, nil
	default:
		return nil, apperr.Validation(paramName, fmt.Sprint(v), "must be a string or array of strings", "")
	}
}

// Titles parses the task titles of a bulk request. A single string holding
// several lines yields one title per non-empty line.
func Titles(param interface{}) ([]string, error) {
	items, err := ParseStringOrArray(param, "tasks")
	if err != nil {
		return nil, err
	}
	if len(items) == 1 && strings.Contains(items[0], "\n") {
		var lines []string
		for _, line := range strings.Split(items[0], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		return lines, nil
	}
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items, nil
}

// Collect aggregates results into a BulkResult.
func Collect(results []Result) BulkResult {
	br := BulkResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// ProcessBatch executes fn on each item in order and collects results.
// Once ctx is done the remaining items are reported as failed without
// calling fn.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
		} else {
			results = append(results, NewSuccessResult(id, res))
		}
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
}
