package types

import "testing"

func TestNormalizeURLIdempotent(t *testing.T) {
	raw := "HTTPS://Example.COM/a%2Fb/c%20d.PDF?x=1#frag"
	first, err := NormalizeURL(raw)
	if err != nil {
		t.Fatalf("NormalizeURL: %v", err)
	}
	second, err := NormalizeURL(first)
	if err != nil {
		t.Fatalf("NormalizeURL (second pass): %v", err)
	}
	if first != second {
		t.Fatalf("normalize not idempotent: %q != %q", first, second)
	}
}

func TestNormalizeURLLowercasesSchemeAndHostStripsFragment(t *testing.T) {
	got, err := NormalizeURL("HTTP://Example.COM/path#section")
	if err != nil {
		t.Fatalf("NormalizeURL: %v", err)
	}
	want := "http://example.com/path"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeURLRejectsRelative(t *testing.T) {
	if _, err := NormalizeURL("/just/a/path"); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestSizeKBFromBytesRoundsToTwoPlaces(t *testing.T) {
	cases := []struct {
		bytes int64
		want  SizeKB
	}{
		{0, 0},
		{1024, 1},
		{1536, 1.5},
		{1000, 0.98},
		{-5, 0},
	}
	for _, c := range cases {
		got := SizeKBFromBytes(c.bytes)
		if got != c.want {
			t.Errorf("SizeKBFromBytes(%d) = %v, want %v", c.bytes, got, c.want)
		}
	}
}

func TestNewSha256HexValidatesShape(t *testing.T) {
	valid := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	if _, err := NewSha256Hex(valid); err != nil {
		t.Fatalf("expected valid hash to be accepted: %v", err)
	}
	if _, err := NewSha256Hex("TOO-SHORT"); err == nil {
		t.Fatal("expected error for wrong-length hash")
	}
	if _, err := NewSha256Hex("zz23456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"); err == nil {
		t.Fatal("expected error for non-hex characters")
	}
}

func TestNewSha256HexNormalizesCase(t *testing.T) {
	upper := "0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF"
	got, err := NewSha256Hex(upper)
	if err != nil {
		t.Fatalf("NewSha256Hex: %v", err)
	}
	want := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSumBytesMatchesNewSha256Hex(t *testing.T) {
	sum := SumBytes([]byte("hello"))
	if _, err := NewSha256Hex(string(sum)); err != nil {
		t.Fatalf("SumBytes produced an invalid Sha256Hex: %v", err)
	}
}

func TestNewMimeTypeStripsParametersAndLowercases(t *testing.T) {
	got := NewMimeType("Text/HTML; charset=utf-8")
	if got != "text/html" {
		t.Fatalf("got %q, want %q", got, "text/html")
	}
}
