// Package aggregate runs the multi-list read operations: time-range
// summaries and text search.
//
// Lists are fetched concurrently but results always come back in list
// order, with store order kept within each list. A list that cannot be
// read does not fail the operation; it is recorded as a Failure next to the
// results of the other lists. Only when every list fails is an
// *apperr.PartialFailure returned.
package aggregate

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/logging"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/timerange"
)

// Defaults for the aggregator options.
const (
	DefaultConcurrency  = 4
	DefaultTasksPerList = 100
	DefaultMaxLists     = 50
)

// Failure records a list that could not be read.
type Failure struct {
	List tasks.TaskList
	Err  error
}

// Group is the tasks one list contributed.
type Group struct {
	List  tasks.TaskList
	Tasks []tasks.Task
}

// Summary is the result of Summarize.
type Summary struct {
	Window           timerange.Window
	IncludeCompleted bool
	Groups           []Group
	Failures         []Failure
}

// Partial reports whether some lists failed.
func (s Summary) Partial() bool { return len(s.Failures) > 0 }

// Counts returns the number of pending and completed tasks.
func (s Summary) Counts() (pending, completed int) {
	for _, g := range s.Groups {
		for _, t := range g.Tasks {
			if t.IsCompleted() {
				completed++
			} else {
				pending++
			}
		}
	}
	return pending, completed
}

// Match is one search hit.
type Match struct {
	List tasks.TaskList
	Task tasks.Task
}

// SearchResult is the result of Search.
type SearchResult struct {
	Query    string
	Matches  []Match
	Failures []Failure
}

// Partial reports whether some lists failed.
func (r SearchResult) Partial() bool { return len(r.Failures) > 0 }

// Aggregator fans read operations out over several lists.
type Aggregator struct {
	store        tasks.Store
	logger       logging.Logger
	metrics      *instrumentation.Metrics
	concurrency  int
	tasksPerList int64
	maxLists     int64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for per-list failures.
func WithLogger(l logging.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics counts per-list failures in m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithConcurrency bounds the number of lists fetched at once.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithTasksPerList caps the tasks read from one list.
func WithTasksPerList(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.tasksPerList = int64(n)
		}
	}
}

// WithMaxLists caps the lists scanned when no subset is given.
func WithMaxLists(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxLists = int64(n)
		}
	}
}

// New creates an Aggregator over store.
func New(store tasks.Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:        store,
		logger:       logging.NopLogger(),
		concurrency:  DefaultConcurrency,
		tasksPerList: DefaultTasksPerList,
		maxLists:     DefaultMaxLists,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scope is the set of lists an operation covers. Unresolved holds the
// requested lists that could not be looked up; they are reported as
// failures of the operation.
type Scope struct {
	Lists      []tasks.TaskList
	Unresolved []Failure
}

// ScopeOf returns a Scope over lists.
func ScopeOf(lists ...tasks.TaskList) Scope { return Scope{Lists: lists} }

func (s Scope) size() int { return len(s.Lists) + len(s.Unresolved) }

// Lists resolves the lists to scan. With no ids every list is returned, up
// to the configured maximum; otherwise each id is looked up in order and an
// id that cannot be looked up is kept in Unresolved. Only a failure to list
// all lists, or a done ctx, is returned as an error.
func (a *Aggregator) Lists(ctx context.Context, ids []string) (Scope, error) {
	if len(ids) == 0 {
		page, err := a.store.ListTaskLists(ctx, tasks.ListOptions{MaxResults: a.maxLists, AllPages: true})
		if err != nil {
			return Scope{}, err
		}
		return Scope{Lists: page.Items}, nil
	}

	scope := Scope{Lists: make([]tasks.TaskList, 0, len(ids))}
	for _, id := range ids {
		l, err := a.store.GetTaskList(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Scope{}, ctxErr
			}
			scope.Unresolved = append(scope.Unresolved, Failure{List: tasks.TaskList{ID: id}, Err: err})
			continue
		}
		scope.Lists = append(scope.Lists, *l)
	}
	return scope, nil
}

// Summarize collects the tasks due inside the named window from every list,
// grouped by list. Completed tasks are kept only with includeCompleted.
func (a *Aggregator) Summarize(ctx context.Context, scope Scope, rangeName string, includeCompleted bool, now time.Time) (Summary, error) {
	window, err := timerange.Resolve(rangeName, now)
	if err != nil {
		return Summary{}, err
	}

	filter := tasks.TaskFilter{
		MaxResults:    a.tasksPerList,
		AllPages:      true,
		ShowCompleted: includeCompleted,
		ShowHidden:    includeCompleted,
	}
	if !window.Lower.IsZero() {
		filter.DueMin = window.Lower
	}
	if !window.Upper.IsZero() {
		// DueMax is inclusive, the window's upper bound is not.
		filter.DueMax = dates.AddDays(window.Upper, -1)
	}

	fetched, failures, err := a.fetch(ctx, instrumentation.OperationSummary, scope, filter)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Window: window, IncludeCompleted: includeCompleted, Failures: failures}
	for i, items := range fetched {
		if items == nil {
			continue
		}
		group := Group{List: scope.Lists[i]}
		for _, t := range items {
			if !window.Contains(t.Due) {
				continue
			}
			if t.IsCompleted() && !includeCompleted {
				continue
			}
			group.Tasks = append(group.Tasks, t)
		}
		summary.Groups = append(summary.Groups, group)
	}

	if scope.size() > 0 && len(failures) == scope.size() {
		return summary, partialFailure(instrumentation.OperationSummary, failures)
	}
	return summary, nil
}

// Search returns tasks whose title or notes contain query, ignoring case.
// Matches are ordered by list, then by store order, and cut at maxResults.
func (a *Aggregator) Search(ctx context.Context, scope Scope, query string, includeCompleted bool, maxResults int) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, apperr.Validation("query", query, "must not be empty", "Provide the text to search for.")
	}

	filter := tasks.TaskFilter{
		MaxResults:    a.tasksPerList,
		AllPages:      true,
		ShowCompleted: includeCompleted,
		ShowHidden:    includeCompleted,
	}
	fetched, failures, err := a.fetch(ctx, instrumentation.OperationSearch, scope, filter)
	if err != nil {
		return SearchResult{}, err
	}

	needle := strings.ToLower(query)
	result := SearchResult{Query: query, Failures: failures}
collect:
	for i, items := range fetched {
		for _, t := range items {
			if maxResults > 0 && len(result.Matches) >= maxResults {
				break collect
			}
			if t.IsCompleted() && !includeCompleted {
				continue
			}
			if strings.Contains(strings.ToLower(t.Title), needle) || strings.Contains(strings.ToLower(t.Notes), needle) {
				result.Matches = append(result.Matches, Match{List: scope.Lists[i], Task: t})
			}
		}
	}

	if scope.size() > 0 && len(failures) == scope.size() {
		return result, partialFailure(instrumentation.OperationSearch, failures)
	}
	return result, nil
}

// fetch reads every list of scope with filter. The returned slice is
// indexed like scope.Lists; failed lists have a nil entry and a Failure,
// listed after the unresolved ones. The error is only set when ctx is done.
func (a *Aggregator) fetch(ctx context.Context, operation string, scope Scope, filter tasks.TaskFilter) ([][]tasks.Task, []Failure, error) {
	lists := scope.Lists
	results := make([][]tasks.Task, len(lists))
	errs := make([]error, len(lists))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, l := range lists {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := a.store.ListTasks(gctx, l.ID, filter)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			items := page.Items
			if items == nil {
				items = []tasks.Task{}
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var failures []Failure
	for _, f := range scope.Unresolved {
		failures = append(failures, a.recordFailure(ctx, operation, f))
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		failures = append(failures, a.recordFailure(ctx, operation, Failure{List: lists[i], Err: err}))
	}
	return results, failures, nil
}

func (a *Aggregator) recordFailure(ctx context.Context, operation string, f Failure) Failure {
	kind := apperr.Kind(f.Err)
	a.logger.Warn("failed to read task list",
		logging.Operation(operation),
		logging.ListID(f.List.ID),
		"list_title", f.List.Title,
		"error_kind", kind,
		logging.Err(f.Err))
	a.metrics.RecordListFailure(ctx, operation, kind)
	return f
}

func partialFailure(op string, failures []Failure) *apperr.PartialFailure {
	pf := &apperr.PartialFailure{Op: op}
	for _, f := range failures {
		source := f.List.Title
		if source == "" {
			source = f.List.ID
		}
		pf.Failures = append(pf.Failures, apperr.SourceFailure{Source: source, ID: f.List.ID, Err: f.Err})
	}
	return pf
}
