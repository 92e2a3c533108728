package chat

import "testing"

func TestOwnMessageFilter(t *testing.T) {
	w := New("ClipCourier", "oauth:token", "somechannel")
	cases := []struct {
		user string
		own  bool
	}{
		{"clipcourier", true},
		{"ClipCourier", true},
		{"CLIPCOURIER", true},
		{"viewer123", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := w.ownMessage(tc.user); got != tc.own {
			t.Errorf("ownMessage(%q) = %v, want %v", tc.user, got, tc.own)
		}
	}
}
