package ledger

import (
	"testing"
)

func TestSplitShares(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{
			name:  "even split",
			total: 3000,
			n:     3,
			want:  []int64{1000, 1000, 1000},
		},
		{
			name:  "residual goes to first participants",
			total: 3200,
			n:     3,
			want:  []int64{1067, 1067, 1066},
		},
		{
			name:  "single participant",
			total: 500,
			n:     1,
			want:  []int64{500},
		},
		{
			name:  "total smaller than count",
			total: 2,
			n:     3,
			want:  []int64{1, 1, 0},
		},
		{
			name:  "large residual",
			total: 100,
			n:     7,
			want:  []int64{15, 15, 14, 14, 14, 14, 14},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitShares(tt.total, tt.n)
			if err != nil {
				t.Fatalf("SplitShares() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SplitShares() returned %d shares, want %d", len(got), len(tt.want))
			}
			var sum int64
			for i, share := range got {
				if share != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, share, tt.want[i])
				}
				sum += share
			}
			if sum != tt.total {
				t.Errorf("sum of shares = %d, want %d", sum, tt.total)
			}
		})
	}
}

func TestSplitSharesProperties(t *testing.T) {
	// Exact sum and max-min spread <= 1 across a sweep of inputs.
	for total := int64(1); total <= 500; total += 13 {
		for n := 1; n <= 9; n++ {
			shares, err := SplitShares(total, n)
			if err != nil {
				t.Fatalf("SplitShares(%d, %d) error = %v", total, n, err)
			}
			var sum, min, max int64
			min, max = shares[0], shares[0]
			for _, s := range shares {
				sum += s
				if s < min {
					min = s
				}
				if s > max {
					max = s
				}
			}
			if sum != total {
				t.Fatalf("SplitShares(%d, %d) sum = %d", total, n, sum)
			}
			if max-min > 1 {
				t.Fatalf("SplitShares(%d, %d) spread = %d", total, n, max-min)
			}
		}
	}
}

func TestSplitSharesRejectsInvalidInput(t *testing.T) {
	if _, err := SplitShares(0, 3); err != ErrInvalidTotal {
		t.Errorf("zero total: err = %v, want ErrInvalidTotal", err)
	}
	if _, err := SplitShares(-100, 3); err != ErrInvalidTotal {
		t.Errorf("negative total: err = %v, want ErrInvalidTotal", err)
	}
	if _, err := SplitShares(100, 0); err != ErrInvalidParticipants {
		t.Errorf("zero count: err = %v, want ErrInvalidParticipants", err)
	}
}

func TestSplitAmongOthers(t *testing.T) {
	// Dinner with two friends, user paid: divisor is 3, the user takes the
	// smallest share and no record of their own.
	shares, err := SplitAmongOthers(3200, 2)
	if err != nil {
		t.Fatalf("SplitAmongOthers() error = %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("got %d shares, want 2", len(shares))
	}
	if shares[0] != 1067 || shares[1] != 1067 {
		t.Errorf("shares = %v, want [1067 1067]", shares)
	}
	var sum int64
	for _, s := range shares {
		sum += s
	}
	if userShare := 3200 - sum; userShare != 1066 {
		t.Errorf("implied user share = %d, want 1066", userShare)
	}
}
