//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: \"¡Hola!\"\nsaved: \"✅ Nombre guardado: %s\"\n")

	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("greeting")
		want := "¡Hola!"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("nonexistent_key")
		want := "nonexistent_key"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("saved", "Esmeralda 2ct")
		want := "✅ Nombre guardado: Esmeralda 2ct"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should report missing keys", func(t *testing.T) {
		got := translator.Missing("saved", "zeta", "alpha")
		if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
			t.Errorf("unexpected missing keys: %v", got)
		}
	})
}

func TestNewTranslator_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/xx.yaml": &fstest.MapFile{Data: []byte("k: v\n")},
	}
	tr, err := NewTranslator(fsys, "xx")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if tr.T("k") != "v" || tr.Lang() != "xx" {
		t.Errorf("unexpected translator state: %q %q", tr.T("k"), tr.Lang())
	}

	if _, err := NewTranslator(fsys, "zz"); err == nil {
		t.Error("expected error for missing language file")
	}
}

func TestEmbeddedSpanishVocabulary(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, DefaultLang)
	if err != nil {
		t.Fatalf("embedded vocabulary failed to load: %v", err)
	}
	welcome := tr.T("welcome")
	if !strings.HasPrefix(welcome, "👋 *Bienvenido a Esmeraldas Victory*\n\n") {
		t.Errorf("unexpected welcome text: %q", welcome)
	}
	if got := tr.T("upload_name_saved", "Esmeralda 2ct"); !strings.HasPrefix(got, "✅ Nombre guardado: Esmeralda 2ct\n\n2️⃣") {
		t.Errorf("unexpected name reply: %q", got)
	}
	if got := tr.T("webhook_processed"); got != "Message processed successfully" {
		t.Errorf("unexpected webhook status: %q", got)
	}
}
