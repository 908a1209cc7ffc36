package pagerange

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		totalPages int
		want       []int
		wantErr    bool
	}{
		{
			name:       "single page",
			input:      "3",
			totalPages: 10,
			want:       []int{2},
		},
		{
			name:       "comma separated pages",
			input:      "1,3,5",
			totalPages: 10,
			want:       []int{0, 2, 4},
		},
		{
			name:       "inclusive range",
			input:      "5-7",
			totalPages: 10,
			want:       []int{4, 5, 6},
		},
		{
			name:       "mixed pages and ranges with spaces",
			input:      " 1, 3, 5-7 ",
			totalPages: 10,
			want:       []int{0, 2, 4, 5, 6},
		},
		{
			name:       "out of range pages filtered silently",
			input:      "1,9,12",
			totalPages: 10,
			want:       []int{0, 8},
		},
		{
			name:       "range extending past the document is clipped",
			input:      "9-15",
			totalPages: 10,
			want:       []int{8, 9},
		},
		{
			name:       "all pages out of range yields nil",
			input:      "20,21",
			totalPages: 10,
			want:       nil,
		},
		{
			name:       "empty input selects nothing",
			input:      "  ",
			totalPages: 10,
			want:       nil,
		},
		{
			name:       "non numeric token",
			input:      "1,abc",
			totalPages: 10,
			wantErr:    true,
		},
		{
			name:       "reversed range",
			input:      "7-5",
			totalPages: 10,
			wantErr:    true,
		},
		{
			name:       "dangling comma",
			input:      "1,",
			totalPages: 10,
			wantErr:    true,
		},
		{
			name:       "zero page number",
			input:      "0",
			totalPages: 10,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.totalPages)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Errorf("Parse(%q) error = %T, want *ParseError", tt.input, err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrorMessageMentionsSyntax(t *testing.T) {
	_, err := Parse("nope", 5)
	if err == nil {
		t.Fatal("expected error for non-numeric input")
	}
	if got := err.Error(); got == "" {
		t.Error("expected descriptive error message")
	}
}
