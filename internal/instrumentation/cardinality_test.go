package instrumentation

import "testing"

func TestErrorKindLabel(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		expected string
	}{
		{name: "empty", kind: "", expected: ErrorKindNone},
		{name: "validation", kind: "validation", expected: ErrorKindValidation},
		{name: "not found", kind: "not_found", expected: ErrorKindNotFound},
		{name: "partial", kind: "partial", expected: ErrorKindPartial},
		{name: "unknown folds to internal", kind: "something else", expected: ErrorKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKindLabel(tt.kind); got != tt.expected {
				t.Errorf("ErrorKindLabel(%q) = %q, want %q", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestOperationConstants(t *testing.T) {
	ops := []string{
		OperationList, OperationGet, OperationCreate, OperationUpdate, OperationDelete,
		OperationMove, OperationClear, OperationSearch, OperationSummary, OperationQuickAdd, OperationBulk,
	}
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		if op == "" {
			t.Error("operation constant must not be empty")
		}
		if seen[op] {
			t.Errorf("duplicate operation constant %q", op)
		}
		seen[op] = true
	}
}
