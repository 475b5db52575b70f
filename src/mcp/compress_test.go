package mcp

import (
	"reflect"
	"testing"
)

func TestCompressMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "long path",
			input:    "/Users/ci/src/App/Sources/main.m:16:42: error: expected ';'",
			expected: ".../main.m:16:42: error: expected ';'",
		},
		{
			name:     "short path kept",
			input:    "/tmp/main.m:3:1: warning: unused",
			expected: "/tmp/main.m:3:1: warning: unused",
		},
		{
			name:     "derived data hash",
			input:    "in DerivedData/App-bqzhmnhdcxwyjfcfkewvfqmgzvph",
			expected: "in DerivedData/App",
		},
		{
			name:     "whitespace collapsed",
			input:    "  error:\tmissing   return  ",
			expected: "error: missing return",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compressMessage(tt.input); got != tt.expected {
				t.Errorf("compressMessage(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindCommonPrefix(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{
			name:     "single line",
			lines:    []string{"/Users/ci/src/App/Sources/main.m:16"},
			expected: "",
		},
		{
			name: "shared directory",
			lines: []string{
				"/Users/ci/src/App/Sources/main.m:16",
				"/Users/ci/src/App/Sources/util.m:3",
			},
			expected: "/Users/ci/src/App/Sources/",
		},
		{
			name: "cut back to separator",
			lines: []string{
				"/Users/ci/src/App/Sources/main.m:16",
				"/Users/ci/src/App/Sources/mainView.m:3",
			},
			expected: "/Users/ci/src/App/Sources/",
		},
		{
			name: "too short",
			lines: []string{
				"/tmp/a.m:1",
				"/tmp/b.m:2",
			},
			expected: "",
		},
		{
			name:     "nothing shared",
			lines:    []string{"a.m:1", "b.m:2"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findCommonPrefix(tt.lines); got != tt.expected {
				t.Errorf("findCommonPrefix() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestRemoveCommonPrefix(t *testing.T) {
	lines := []string{
		"/Users/ci/src/App/Sources/main.m:16",
		"/Users/ci/src/App/Sources/Views/list.m:3",
	}
	got := removeCommonPrefix(lines)
	want := []string{".../main.m:16", ".../Views/list.m:3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("removeCommonPrefix() = %q, expected %q", got, want)
	}

	short := []string{"a.m:1", "b.m:2"}
	if got := removeCommonPrefix(short); !reflect.DeepEqual(got, short) {
		t.Errorf("removeCommonPrefix() changed lines without a prefix: %q", got)
	}
}
