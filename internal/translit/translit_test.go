package translit

import "testing"

func TestRomanizeHindi(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"नमस्ते", "namaste"},
		{"मेरा नाम", "meraa naama"},
		{"हिंदी", "hindii"},
		{"क्या", "kyaa"},
		{"१२३", "123"},
		{"राम।", "raama."},
	}
	for _, tc := range cases {
		if got := Romanize(tc.in, "hi"); got != tc.want {
			t.Fatalf("Romanize(%q, hi): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRomanizeGujarati(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ગુજરાત", "gujaraata"},
		{"નમસ્તે", "namaste"},
	}
	for _, tc := range cases {
		if got := Romanize(tc.in, "gu"); got != tc.want {
			t.Fatalf("Romanize(%q, gu): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRomanizeUnsupportedLanguagePassthrough(t *testing.T) {
	if got := Romanize("Hello there", "en"); got != "Hello there" {
		t.Fatalf("expected passthrough for unsupported language, got %q", got)
	}
}

func TestRomanizeMixedContent(t *testing.T) {
	got := Romanize("OK नमस्ते", "hi")
	if got != "ok namaste" {
		t.Fatalf("expected lowercase mixed output, got %q", got)
	}
}
