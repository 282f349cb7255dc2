package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFlagFromRegion(t *testing.T) {
	if got := flagFromRegion("us"); got != "🇺🇸" {
		t.Fatalf("flagFromRegion(us) = %q, want %q", got, "🇺🇸")
	}
	if got := flagFromRegion("USA"); got != "" {
		t.Fatalf("flagFromRegion(USA) = %q, want empty", got)
	}
	if got := flagFromRegion("1A"); got != "" {
		t.Fatalf("flagFromRegion(1A) = %q, want empty", got)
	}
}

func TestResolve(t *testing.T) {
	t.Run("native and english names", func(t *testing.T) {
		got := Resolve("de")
		if got.Name != "Deutsch" || got.English != "German" {
			t.Fatalf("Resolve(de) = %#v", got)
		}
	})

	t.Run("explicit region wins", func(t *testing.T) {
		if got := Resolve("pt_BR"); got.Flag != "🇧🇷" {
			t.Fatalf("Resolve(pt_BR).Flag = %q, want 🇧🇷", got.Flag)
		}
		if got := Resolve("en-GB"); got.Flag != "🇬🇧" {
			t.Fatalf("Resolve(en-GB).Flag = %q, want 🇬🇧", got.Flag)
		}
	})

	t.Run("inferred region", func(t *testing.T) {
		if got := Resolve("fr"); got.Flag != "🇫🇷" {
			t.Fatalf("Resolve(fr).Flag = %q, want 🇫🇷", got.Flag)
		}
		if got := Resolve("he"); got.Flag != "🇮🇱" {
			t.Fatalf("Resolve(he).Flag = %q, want 🇮🇱", got.Flag)
		}
	})

	t.Run("override", func(t *testing.T) {
		if got := Resolve("en"); got.Flag != "🇺🇸" {
			t.Fatalf("Resolve(en).Flag = %q, want 🇺🇸", got.Flag)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("not a language")
		if got.Name != "not a language" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestLabel(t *testing.T) {
	if got, want := Label("de"), "🇩🇪 de (Deutsch)"; got != want {
		t.Fatalf("Label(de) = %q, want %q", got, want)
	}
	if got, want := Label("not a language"), "not a language"; got != want {
		t.Fatalf("Label() = %q, want %q", got, want)
	}
}
