package codec

import "testing"

func TestAlignUpSupportsNonPowerOfTwoAlignment(t *testing.T) {
	cases := []struct{ n, alignment, want int }{
		{0, 17, 0},
		{1, 17, 17},
		{17, 17, 17},
		{18, 17, 34},
		{19, 19, 19},
		{20, 19, 38},
	}
	for _, c := range cases {
		if got := AlignUp(c.n, c.alignment); got != c.want {
			t.Fatalf("AlignUp(%d, %d) = %d, want %d", c.n, c.alignment, got, c.want)
		}
	}
}

func TestAlignUpStillHandlesPowerOfTwo(t *testing.T) {
	if got := AlignUp(18, 32); got != 32 {
		t.Fatalf("AlignUp(18, 32) = %d, want 32", got)
	}
	if got := AlignUp(32, 32); got != 32 {
		t.Fatalf("AlignUp(32, 32) = %d, want 32", got)
	}
}
