//go:build !integration

package i18n

import (
	"strings"
	"testing"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes("ar", []byte("greeting: أهلا\nwelcome_user: أهلا %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "أهلا" {
			t.Errorf("wanted 'أهلا', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Mona"); got != "أهلا Mona" {
			t.Errorf("wanted 'أهلا Mona', got '%s'", got)
		}
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		if _, err := newTranslatorFromBytes("xx", []byte("key: [unterminated")); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestEmbeddedLocales(t *testing.T) {
	keys := []string{"redemption.title", "redemption.amount", "redemption.discount", "redemption.paid", "redemption.location", "redemption.code"}
	for _, lang := range []string{"ar", "en"} {
		tr, err := NewTranslator(LocalesFS, lang)
		if err != nil {
			t.Fatalf("load %s: %v", lang, err)
		}
		if tr.Lang() != lang {
			t.Errorf("expected lang %s, got %s", lang, tr.Lang())
		}
		for _, k := range keys {
			if tr.T(k) == k {
				t.Errorf("%s: missing key %s", lang, k)
			}
		}
	}

	if _, err := NewTranslator(LocalesFS, "fa"); err == nil || !strings.Contains(err.Error(), "fa.yaml") {
		t.Errorf("expected a missing-file error, got %v", err)
	}
}
