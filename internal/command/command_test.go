package command

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Intent
	}{
		{"", Intent{Kind: Help}},
		{"help", Intent{Kind: Help}},
		{"  help  ", Intent{Kind: Help}},
		{"resolve", Intent{Kind: Resolve}},
		{"unresolve", Intent{Kind: Unresolve}},
		{"clean", Intent{Kind: Clean}},
		{"purge 5", Intent{Kind: Purge, Count: 5}},
		{"purge 0", Intent{Kind: Purge, Count: 0}},
		{"purge alice@example.com 3", Intent{Kind: PurgeUser, Email: "alice@example.com", Count: 3}},
		{"purge alice@example.com", Intent{Kind: PurgeAll, Email: "alice@example.com", Count: 1000}},
		{"mute bob@example.com", Intent{Kind: Mute, Email: "bob@example.com"}},
		{"unmute bob@example.com", Intent{Kind: Unmute, Email: "bob@example.com"}},
		{"getnotes alice@example.com", Intent{Kind: GetNotes, Email: "alice@example.com"}},
		{"addnote alice@example.com Warned for spam", Intent{Kind: AddNote, Email: "alice@example.com", Text: "Warned for spam"}},
		{"lockdown start", Intent{Kind: LockdownStart}},
		{"lockdown end", Intent{Kind: LockdownEnd}},
		{"lockdown", Intent{Kind: Unrecognized}},
		{"purge", Intent{Kind: Unrecognized}},
		{"purge five", Intent{Kind: Unrecognized}},
		{"purge 5 extra", Intent{Kind: Unrecognized}},
		{"mute notanemail", Intent{Kind: Unrecognized}},
		{"addnote alice@example.com", Intent{Kind: Unrecognized}},
		{"resolve now", Intent{Kind: Unrecognized}},
		{"nonsense", Intent{Kind: Unrecognized}},
	}
	for _, c := range cases {
		got := Parse(c.in)
		if got != c.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

// The two purge forms must never both match the same input: a numeric
// second token selects Purge, an email selects the user forms.
func TestParsePurgeDisambiguation(t *testing.T) {
	if got := Parse("purge 10"); got.Kind != Purge || got.Email != "" {
		t.Fatalf("numeric purge classified as %+v", got)
	}
	if got := Parse("purge u@example.com 10"); got.Kind != PurgeUser {
		t.Fatalf("user purge classified as %+v", got)
	}
	if got := Parse("purge u@example.com"); got.Kind != PurgeAll {
		t.Fatalf("purge-all classified as %+v", got)
	}
}

func TestParseHugeCount(t *testing.T) {
	got := Parse("purge 99999999999999999999999999")
	if got.Kind != Purge {
		t.Fatalf("overflowing count should still parse, got %+v", got)
	}
	if got.Count <= 0 {
		t.Fatalf("overflowing count should clamp to a large value, got %d", got.Count)
	}
}
