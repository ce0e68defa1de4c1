package slug_test

import (
	"testing"

	"pagesource/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Slides":          "slides",
		"  Q3 Review.pdf": "q3-review-pdf",
		"lower_case_ok":   "lower_case_ok",
		"***":             "source",
		"":                "source",
	}
	for in, want := range cases {
		if got := slug.Make(in); got != want {
			t.Fatalf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}
