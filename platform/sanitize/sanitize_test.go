package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>Burst pipes fixed <b>fast</b></p>", "Burst pipes fixed fast"},
		{"no markup at all", "no markup at all"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", "alert(1)"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextCollapsesWhitespace(t *testing.T) {
	got := Text("<p>line one</p>\n<p>line  two</p>")
	if got != "line one line two" {
		t.Fatalf("unexpected text: %q", got)
	}
}
