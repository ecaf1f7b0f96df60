package classifier

import "testing"

func TestIsLikelyQuestion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		// length, counted in characters rather than bytes
		{"hi", false},
		{"gm", false},
		{"   ", false},
		{"你好?", false},
		{"质押的收益率多少?", true},
		// command prefixes
		{"!price aero", false},
		{"/ask something", false},
		{".help me out", false},
		// filler
		{"ok thanks", false},
		{"thanks a lot everyone", false},
		{"thank you for the detailed answer", false},
		{"lol that was fast", false},
		{"nice work on the release", false},
		// question phrasing
		{"what is the staking APY?", true},
		{"what is the deal with rewards", true},
		{"how does the reward math work", true},
		{"anyone know the mint address?", true},
		{"is there a minimum lock period", true},
		// domain keywords without question phrasing
		{"iaero vault rules", true},
		{"veaero emissions schedule pls", true},
		{"tokenomics doc link", true},
		// off-topic statements
		{"just shipped my side project", false},
		{"great weather today over here", false},
	}
	for _, tc := range cases {
		if got := IsLikelyQuestion(tc.text); got != tc.want {
			t.Fatalf("IsLikelyQuestion(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
