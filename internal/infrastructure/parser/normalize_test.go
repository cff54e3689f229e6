package parser

import (
	"testing"
)

func TestComposeText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{"both", "Team wins championship match", "Fans celebrate", "Team wins championship match. Fans celebrate"},
		{"title only", "Team wins championship match", "", "Team wins championship match"},
		{"description only", "", "Fans celebrate", "Fans celebrate"},
		{"neither", "", "   ", ""},
		{"whitespace collapsed", "  Rates \n rise ", "\tagain", "Rates rise. again"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ComposeText(tc.title, tc.description); got != tc.want {
				t.Fatalf("ComposeText(%q, %q) = %q, want %q", tc.title, tc.description, got, tc.want)
			}
		})
	}
}

func TestCleanStripsMarkup(t *testing.T) {
	t.Parallel()

	got := Clean(`<p>Stocks <b>rally</b> &amp; bonds slip</p><script>track()</script>`)
	if got != "Stocks rally & bonds slip" {
		t.Fatalf("unexpected clean text: %q", got)
	}
}

func TestCleanLeavesPlainText(t *testing.T) {
	t.Parallel()

	if got := Clean("3 > 2 is plain"); got != "3 > 2 is plain" {
		t.Fatalf("unexpected clean text: %q", got)
	}
}

func TestCleanJoinsInlineTags(t *testing.T) {
	t.Parallel()

	got := ComposeText("Great <b>foot</b>ball final", "<p>Fans</p><p>celebrate</p>")
	if got != "Great football final. Fans celebrate" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestCleanKeepsBareAngleBracket(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"revenue<forecast beat":      "revenue<forecast beat",
		"<b>Q3</b> revenue<forecast": "Q3 revenue<forecast",
		"AT&T profit &amp; loss <3":  "AT&T profit & loss <3",
		"Tom & Jerry":                "Tom & Jerry",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Fatalf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}
