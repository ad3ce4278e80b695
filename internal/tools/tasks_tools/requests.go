package tasks_tools

import (
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/timerange"
	"github.com/teemow/gtasks-mcp/internal/validation"
)

// Page size defaults and bounds.
const (
	defaultListsPage  = 20
	defaultTasksPage  = 30
	defaultSearchSize = 20
	maxBulkTitles     = 50
)

func intPtr(n int) *int { return &n }

func defaultFormat(f *string, mode render.Mode) {
	if *f == "" {
		*f = string(mode)
	}
}

type createTaskListRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

func (r *createTaskListRequest) sanitize()         { r.Title = validation.SanitizeText(r.Title) }
func (r *createTaskListRequest) defaults(*handlers) {}

type listTaskListsRequest struct {
	MaxResults     *int   `json:"max_results" validate:"omitnil,min=1,max=50"`
	PageToken      string `json:"page_token"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *listTaskListsRequest) defaults(*handlers) {
	if r.MaxResults == nil {
		r.MaxResults = intPtr(defaultListsPage)
	}
	defaultFormat(&r.ResponseFormat, render.Markdown)
}

type getTaskListRequest struct {
	TaskListID     string `json:"tasklist_id" validate:"required"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *getTaskListRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Markdown)
}

type updateTaskListRequest struct {
	TaskListID string `json:"tasklist_id" validate:"required"`
	Title      string `json:"title" validate:"required,min=1,max=200"`
}

func (r *updateTaskListRequest) sanitize()         { r.Title = validation.SanitizeText(r.Title) }
func (r *updateTaskListRequest) defaults(*handlers) {}

type deleteTaskListRequest struct {
	TaskListID string `json:"tasklist_id" validate:"required"`
}

func (r *deleteTaskListRequest) defaults(*handlers) {}

type createTaskRequest struct {
	Title          string `json:"title" validate:"required,min=1,max=500"`
	Notes          string `json:"notes" validate:"max=8192"`
	DueDate        string `json:"due_date" validate:"omitempty,iso_date"`
	TaskListID     string `json:"tasklist_id" validate:"required"`
	ParentTaskID   string `json:"parent_task_id"`
	PreviousTaskID string `json:"previous_task_id"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *createTaskRequest) sanitize() {
	r.Title = validation.SanitizeText(r.Title)
	r.Notes = validation.SanitizeText(r.Notes)
}

func (r *createTaskRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Detailed)
}

type listTasksRequest struct {
	TaskListID     string `json:"tasklist_id" validate:"required"`
	MaxResults     *int   `json:"max_results" validate:"omitnil,min=1,max=100"`
	PageToken      string `json:"page_token"`
	ShowCompleted  bool   `json:"show_completed"`
	ShowDeleted    bool   `json:"show_deleted"`
	ShowHidden     bool   `json:"show_hidden"`
	DueMin         string `json:"due_min" validate:"omitempty,iso_date"`
	DueMax         string `json:"due_max" validate:"omitempty,iso_date"`
	CompletedMin   string `json:"completed_min" validate:"omitempty,iso_date"`
	CompletedMax   string `json:"completed_max" validate:"omitempty,iso_date"`
	UpdatedMin     string `json:"updated_min" validate:"omitempty,iso_date"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *listTasksRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	if r.MaxResults == nil {
		r.MaxResults = intPtr(defaultTasksPage)
	}
	defaultFormat(&r.ResponseFormat, render.Markdown)
}

type getTaskRequest struct {
	TaskID         string `json:"task_id" validate:"required"`
	TaskListID     string `json:"tasklist_id" validate:"required"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *getTaskRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Detailed)
}

type updateTaskRequest struct {
	TaskID         string  `json:"task_id" validate:"required"`
	TaskListID     string  `json:"tasklist_id" validate:"required"`
	Title          *string `json:"title" validate:"omitnil,min=1,max=500"`
	Notes          *string `json:"notes" validate:"omitnil,max=8192"`
	Status         *string `json:"status" validate:"omitnil,task_status"`
	DueDate        *string `json:"due_date" validate:"omitnil,due_date_or_clear"`
	ResponseFormat string  `json:"response_format" validate:"render_mode"`
}

func (r *updateTaskRequest) sanitize() {
	if r.Title != nil {
		t := validation.SanitizeText(*r.Title)
		r.Title = &t
	}
	if r.Notes != nil {
		n := validation.SanitizeText(*r.Notes)
		r.Notes = &n
	}
}

func (r *updateTaskRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Detailed)
}

type deleteTaskRequest struct {
	TaskID     string `json:"task_id" validate:"required"`
	TaskListID string `json:"tasklist_id" validate:"required"`
}

func (r *deleteTaskRequest) defaults(h *handlers) { r.TaskListID = h.listID(r.TaskListID) }

type moveTaskRequest struct {
	TaskID         string `json:"task_id" validate:"required"`
	TaskListID     string `json:"tasklist_id" validate:"required"`
	ParentTaskID   string `json:"parent_task_id"`
	PreviousTaskID string `json:"previous_task_id"`
}

func (r *moveTaskRequest) defaults(h *handlers) { r.TaskListID = h.listID(r.TaskListID) }

type clearCompletedRequest struct {
	TaskListID string `json:"tasklist_id" validate:"required"`
}

func (r *clearCompletedRequest) defaults(h *handlers) { r.TaskListID = h.listID(r.TaskListID) }

type quickAddRequest struct {
	Text           string `json:"text" validate:"required,min=1,max=1000"`
	TaskListID     string `json:"tasklist_id" validate:"required"`
	ResponseFormat string `json:"response_format" validate:"render_mode"`
}

func (r *quickAddRequest) sanitize() { r.Text = validation.SanitizeText(r.Text) }

func (r *quickAddRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Detailed)
}

type bulkCreateRequest struct {
	Tasks          interface{} `json:"tasks" validate:"required"`
	TaskListID     string      `json:"tasklist_id" validate:"required"`
	DueDate        string      `json:"due_date" validate:"omitempty,iso_date"`
	ResponseFormat string      `json:"response_format" validate:"render_mode"`
}

func (r *bulkCreateRequest) defaults(h *handlers) {
	r.TaskListID = h.listID(r.TaskListID)
	defaultFormat(&r.ResponseFormat, render.Markdown)
}

// bulkTitles validates the parsed titles of a bulk create.
type bulkTitles struct {
	Titles []string `json:"tasks" validate:"min=1,max=50,dive,min=1,max=500"`
}

type searchRequest struct {
	Query            string      `json:"query" validate:"required,min=1,max=200"`
	IncludeCompleted bool        `json:"include_completed"`
	MaxResults       *int        `json:"max_results" validate:"omitnil,min=1,max=50"`
	TaskListIDs      interface{} `json:"tasklist_ids"`
	ResponseFormat   string      `json:"response_format" validate:"render_mode"`
}

func (r *searchRequest) sanitize() { r.Query = validation.SanitizeText(r.Query) }

func (r *searchRequest) defaults(*handlers) {
	if r.MaxResults == nil {
		r.MaxResults = intPtr(defaultSearchSize)
	}
	defaultFormat(&r.ResponseFormat, render.Markdown)
}

type summaryRequest struct {
	TimeRange        string      `json:"time_range" validate:"time_range"`
	IncludeCompleted bool        `json:"include_completed"`
	TaskListIDs      interface{} `json:"tasklist_ids"`
	ResponseFormat   string      `json:"response_format" validate:"render_mode"`
}

func (r *summaryRequest) defaults(*handlers) {
	if r.TimeRange == "" {
		r.TimeRange = string(timerange.Today)
	}
	defaultFormat(&r.ResponseFormat, render.Concise)
}
