package pool

import "testing"

func TestLockExpired(t *testing.T) {
	cases := []struct {
		last, now int64
		expired   bool
		remaining uint64
	}{
		{last: 1_000, now: 1_000, expired: false, remaining: 100},
		{last: 1_000, now: 1_050, expired: false, remaining: 50},
		{last: 1_000, now: 1_099, expired: false, remaining: 1},
		{last: 1_000, now: 1_100, expired: true, remaining: 0},
		{last: 1_000, now: 5_000, expired: true, remaining: 0},
		{last: 1_000, now: 990, expired: false, remaining: 110},
		{last: 0, now: 100, expired: true, remaining: 0},
	}
	for _, tc := range cases {
		if got := lockExpired(tc.last, tc.now); got != tc.expired {
			t.Fatalf("lockExpired(%d, %d) = %v, want %v", tc.last, tc.now, got, tc.expired)
		}
		if got := lockRemaining(tc.last, tc.now); got != tc.remaining {
			t.Fatalf("lockRemaining(%d, %d) = %d, want %d", tc.last, tc.now, got, tc.remaining)
		}
	}
}
