package services

import "testing"

func TestReputation(t *testing.T) {
	tests := []struct {
		name   string
		praise int
		report int
		want   int
	}{
		{"new player sits at base", 0, 0, 6},
		{"four praises not enough for a point", 4, 0, 6},
		{"fifth praise earns a point", 5, 0, 7},
		{"twenty praises reach the ceiling", 20, 0, 10},
		{"further praises do not overflow", 125, 0, 10},
		{"five reports cost a point", 0, 5, 5},
		{"thirty reports reach the floor", 0, 30, 0},
		{"further reports do not underflow", 0, 95, 0},
		{"praise and reports offset", 10, 5, 7},
		{"partial counts are truncated, not rounded", 7, 12, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reputation(tt.praise, tt.report); got != tt.want {
				t.Errorf("Reputation(%d, %d) = %d, want %d", tt.praise, tt.report, got, tt.want)
			}
		})
	}
}

func TestReputationDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Reputation(17, 9); got != 8 {
			t.Fatalf("Reputation(17, 9) = %d on run %d, want 8", got, i)
		}
	}
}
