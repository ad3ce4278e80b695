package cmd

import (
	"testing"

	"github.com/teemow/gtasks-mcp/internal/config"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "https://claude.ai",
			expected: []string{"https://claude.ai"},
		},
		{
			name:     "multiple values",
			input:    "https://claude.ai,http://localhost:6274",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "values with spaces around comma",
			input:    "https://claude.ai, http://localhost:6274",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "values with leading/trailing spaces",
			input:    "  https://claude.ai  ,  http://localhost:6274  ",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "trailing comma",
			input:    "https://claude.ai,http://localhost:6274,",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "leading comma",
			input:    ",https://claude.ai,http://localhost:6274",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "https://claude.ai,,http://localhost:6274",
			expected: []string{"https://claude.ai", "http://localhost:6274"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: []string{},
		},
		{
			name:     "single value with surrounding whitespace",
			input:    "  https://claude.ai  ",
			expected: []string{"https://claude.ai"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			// Handle nil vs empty slice comparison
			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestNormalizeTransport(t *testing.T) {
	tests := map[string]string{
		"stdio":           "stdio",
		"http":            "http",
		"streamable-http": "http",
		" HTTP ":          "http",
		"sse":             "sse",
	}
	for in, want := range tests {
		if got := normalizeTransport(in); got != want {
			t.Errorf("normalizeTransport(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServeFlagsApply(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{
		"--transport", "streamable-http",
		"--read-only",
		"--debug",
		"--cors-origins", "https://a.example, https://b.example",
		"--time-zone", "Europe/Berlin",
	}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg := config.Default()
	cfg.Transport.HTTPAddr = "0.0.0.0:9000" // from the config file
	var flags serveFlags
	flags.transport = "streamable-http"
	flags.readOnly = true
	flags.debug = true
	flags.corsOrigins = "https://a.example, https://b.example"
	flags.timeZone = "Europe/Berlin"
	flags.httpAddr = "127.0.0.1:8080"

	if err := flags.apply(cmd, &cfg); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	if cfg.Transport.Mode != config.TransportHTTP {
		t.Errorf("Transport.Mode = %q, want %q", cfg.Transport.Mode, config.TransportHTTP)
	}
	if !cfg.ReadOnly {
		t.Error("ReadOnly = false, want true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if len(cfg.Transport.CORSOrigins) != 2 || cfg.Transport.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Transport.CORSOrigins)
	}
	if cfg.TimeZone != "Europe/Berlin" {
		t.Errorf("TimeZone = %q, want Europe/Berlin", cfg.TimeZone)
	}
	// Unset flags keep the configured value.
	if cfg.Transport.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("HTTPAddr = %q, want the configured 0.0.0.0:9000", cfg.Transport.HTTPAddr)
	}
}

func TestServeFlagsApplyRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		set  func(*serveFlags)
	}{
		{
			name: "unknown transport",
			args: []string{"--transport", "sse"},
			set:  func(f *serveFlags) { f.transport = "sse" },
		},
		{
			name: "bad rate",
			args: []string{"--rate-limit", "fast"},
			set:  func(f *serveFlags) { f.rateLimit = "fast" },
		},
		{
			name: "unknown zone",
			args: []string{"--time-zone", "Mars/Olympus"},
			set:  func(f *serveFlags) { f.timeZone = "Mars/Olympus" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newServeCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}
			var flags serveFlags
			tt.set(&flags)
			cfg := config.Default()
			if err := flags.apply(cmd, &cfg); err == nil {
				t.Error("apply() succeeded, want a validation error")
			}
		})
	}
}
