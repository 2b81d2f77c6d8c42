package transcript

import "testing"

func TestShowNotesText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "adjacent blocks keep word boundaries",
			raw:  "<p>First paragraph.</p><p>Second paragraph.</p>",
			want: "First paragraph. Second paragraph.",
		},
		{
			name: "nested markup",
			raw:  "<div><h2>Topics</h2><ul><li>Sleep</li><li>Focus &amp; attention</li></ul></div>",
			want: "Topics Sleep Focus & attention",
		},
		{
			name: "script content dropped",
			raw:  "<p>Notes</p><script>track()</script>",
			want: "Notes",
		},
		{
			name: "plain text",
			raw:  "  Just   some notes\nwith whitespace  ",
			want: "Just some notes with whitespace",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := showNotesText(tc.raw); got != tc.want {
				t.Fatalf("showNotesText(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
