package sha1key

import "testing"

func TestOfKnownVector(t *testing.T) {
	// echo -n "" | sha1sum
	got := Of("")
	want := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	if got != want {
		t.Fatalf("Of(\"\"): got %q, want %q", got, want)
	}
	if len(got) != Size {
		t.Fatalf("len(Of(\"\")): got %d, want %d", len(got), Size)
	}
}

func TestOfIsStable(t *testing.T) {
	a := Of("some-cache-key")
	b := Of("some-cache-key")
	if a != b {
		t.Fatalf("Of is not deterministic: %q != %q", a, b)
	}
}
