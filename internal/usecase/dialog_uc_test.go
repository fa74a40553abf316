//go:build !integration

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
)

const seller = "573001234567"

type dialogFixture struct {
	uc       *dialogUC
	products *MockProductRepo
	states   *MockConversationStore
	locks    *MockLocker
	images   *MockImageIngest
	tm       *MockTxManager
	tr       Translator
}

func newDialogFixture(t *testing.T, opts DialogOptions) *dialogFixture {
	t.Helper()
	f := &dialogFixture{
		products: NewMockProductRepo(),
		states:   NewMockConversationStore(),
		locks:    NewMockLocker(),
		images:   &MockImageIngest{},
		tm:       &MockTxManager{},
		tr:       newTestTranslator(t),
	}
	f.uc = NewDialogUseCase(f.products, f.tm, f.states, f.locks, f.images, f.tr, opts, newTestLogger())
	f.uc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

// say sends text without an image and fails the test on a dispatch error.
func (f *dialogFixture) say(t *testing.T, text string) string {
	t.Helper()
	reply, err := f.uc.Dispatch(context.Background(), seller, text, nil)
	if err != nil {
		t.Fatalf("Dispatch(%q) returned error: %v", text, err)
	}
	return reply
}

func (f *dialogFixture) sendImage(t *testing.T, url string) string {
	t.Helper()
	reply, err := f.uc.Dispatch(context.Background(), seller, "", &model.ImagePayload{URL: url, MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Dispatch(image) returned error: %v", err)
	}
	return reply
}

// walkToImageStep drives an upload up to the photo prompt.
func (f *dialogFixture) walkToImageStep(t *testing.T) {
	t.Helper()
	f.say(t, "subir producto")
	f.say(t, "Esmeralda 2ct")
	f.say(t, "Esmeralda natural, verde intenso")
	f.say(t, "$2,500")
	f.say(t, "Anillo")
	f.say(t, "+573001234567")
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDialog_UploadHappyPath(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})

	if got := f.say(t, "Subir producto"); got != f.tr.T(keyUploadStart) {
		t.Fatalf("unexpected upload start reply: %q", got)
	}
	if st := f.states.peek(seller); st == nil || st.Step != model.StepUploadName || st.Action != model.ActionUpload {
		t.Fatalf("expected step 1 upload state, got %+v", st)
	}

	got := f.say(t, "Esmeralda 2ct")
	if !strings.HasPrefix(got, "✅ Nombre guardado: Esmeralda 2ct") {
		t.Errorf("unexpected name reply: %q", got)
	}
	if st := f.states.peek(seller); st.Name != "Esmeralda 2ct" || st.Step != model.StepUploadDescription {
		t.Errorf("expected name stored with case preserved, got %+v", st)
	}

	f.say(t, "Esmeralda natural, verde intenso")
	if got := f.say(t, "$2,500"); !strings.HasPrefix(got, "✅ Precio guardado: $2500") {
		t.Errorf("unexpected price reply: %q", got)
	}
	f.say(t, "Anillo")
	f.say(t, "+573001234567")
	if st := f.states.peek(seller); st.Step != model.StepUploadImage {
		t.Fatalf("expected image step, got %+v", st)
	}

	got = f.sendImage(t, "https://lookaside.fbsbx.com/media/123")
	want := f.tr.T(keyUploadSuccess, "Esmeralda 2ct", "2500", "Esmeralda natural, verde intenso")
	if got != want {
		t.Errorf("unexpected success reply:\n got: %q\nwant: %q", got, want)
	}

	if st := f.states.peek(seller); st != nil {
		t.Errorf("expected state removed after upload, got %+v", st)
	}

	// save is called twice for the same id, the second carrying the image
	if len(f.products.Saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(f.products.Saves))
	}
	first, second := f.products.Saves[0], f.products.Saves[1]
	if first.ID != second.ID || first.ID == 0 {
		t.Errorf("expected both saves on the same assigned id, got %d and %d", first.ID, second.ID)
	}
	if first.ImageURL != nil {
		t.Error("first save must not carry an image url")
	}
	if second.ImageURL == nil || *second.ImageURL == "" {
		t.Error("second save must carry the image url")
	}
	if len(f.images.Calls) != 1 || f.images.Calls[0].ProductID != first.ID || f.images.Calls[0].URL != "https://lookaside.fbsbx.com/media/123" {
		t.Errorf("expected one ingest call for product %d, got %+v", first.ID, f.images.Calls)
	}

	stored, _ := f.products.get(first.ID)
	if !stored.Price.Equal(price("2500")) || stored.Category != "Anillo" || stored.WhatsappNumber != "+573001234567" {
		t.Errorf("unexpected stored product: %+v", stored)
	}
	if !stored.IsVisible() {
		t.Error("expected product to be visible after upload")
	}
	if f.locks.Held[seller] != 0 {
		t.Errorf("expected sender lock released, held=%d", f.locks.Held[seller])
	}
}

func TestDialog_UploadInvalidPriceStays(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	f.say(t, "subir producto")
	f.say(t, "Esmeralda")
	f.say(t, "desc")

	if got := f.say(t, "abc"); got != f.tr.T(keyPriceInvalid) {
		t.Errorf("expected invalid price reply, got %q", got)
	}
	st := f.states.peek(seller)
	if st.Step != model.StepUploadPrice || st.Price != nil {
		t.Errorf("expected to stay at step 3 without price, got %+v", st)
	}

	f.say(t, "USD 2500")
	if st := f.states.peek(seller); st.Step != model.StepUploadCategory || !st.Price.Equal(price("2500")) {
		t.Errorf("expected price stored and step 4, got %+v", st)
	}
}

func TestDialog_UploadOmitCategory(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	f.say(t, "subir producto")
	f.say(t, "n")
	f.say(t, "d")
	f.say(t, "10")
	f.say(t, "OMITIR")

	if st := f.states.peek(seller); st.Category != "Sin categoría" {
		t.Errorf("expected default category, got %q", st.Category)
	}
}

func TestDialog_UploadImageStep(t *testing.T) {
	t.Run("text without image stays at step 6", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.walkToImageStep(t)

		if got := f.say(t, "aquí va"); got != f.tr.T(keyUploadImageMissing) {
			t.Errorf("expected image prompt, got %q", got)
		}
		if st := f.states.peek(seller); st == nil || st.Step != model.StepUploadImage {
			t.Errorf("expected to remain at step 6, got %+v", st)
		}
		if len(f.products.Saves) != 0 {
			t.Error("nothing must be saved before an image arrives")
		}
	})

	t.Run("media id without url stays at step 6", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.walkToImageStep(t)

		reply, err := f.uc.Dispatch(context.Background(), seller, "", &model.ImagePayload{ID: "media-77", MimeType: "image/jpeg"})
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if reply != f.tr.T(keyUploadImageMissing) {
			t.Errorf("expected image prompt, got %q", reply)
		}
		if st := f.states.peek(seller); st == nil || st.Step != model.StepUploadImage || st.Name != "Esmeralda 2ct" {
			t.Errorf("expected draft kept at step 6, got %+v", st)
		}
		if len(f.products.Saves) != 0 || len(f.images.Calls) != 0 {
			t.Error("no save or download expected without a url")
		}

		// a retried photo still completes
		if got := f.sendImage(t, "https://lookaside.fbsbx.com/img.jpg"); !strings.HasPrefix(got, "✅") {
			t.Errorf("expected success after retry, got %q", got)
		}
	})

	t.Run("omitir without default image stays", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.walkToImageStep(t)
		f.say(t, "omitir")
		if st := f.states.peek(seller); st == nil || st.Step != model.StepUploadImage {
			t.Errorf("expected to remain at step 6, got %+v", st)
		}
	})

	t.Run("omitir with default image completes", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{DefaultImageURL: "https://cdn.example.com/placeholder.jpg"})
		f.walkToImageStep(t)
		got := f.say(t, "omitir")
		if !strings.HasPrefix(got, "✅ *¡Producto agregado exitosamente!*") {
			t.Errorf("expected success reply, got %q", got)
		}
		if len(f.images.Calls) != 0 {
			t.Error("no download expected with a default image")
		}
		p, _ := f.products.get(1)
		if p.ImageURL == nil || *p.ImageURL != "https://cdn.example.com/placeholder.jpg" {
			t.Errorf("expected default image url, got %v", p.ImageURL)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})
}

func TestDialog_UploadImageFailure(t *testing.T) {
	t.Run("partial product is kept by default", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.images.DownloadFunc = func(url string, id int64) (string, error) {
			return "", errors.New("http 404")
		}
		f.walkToImageStep(t)

		got := f.sendImage(t, "https://lookaside.fbsbx.com/media/404")
		if got != f.tr.T(keyUploadImageError, "http 404") {
			t.Errorf("unexpected reply: %q", got)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed after ingest failure")
		}
		p, ok := f.products.get(1)
		if !ok {
			t.Fatal("expected partial product to remain")
		}
		if p.ImageURL != nil || p.IsVisible() {
			t.Errorf("partial product must have no image, got %+v", p)
		}
	})

	t.Run("rollback deletes the partial product", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{RollbackOnImageFailure: true})
		f.images.DownloadFunc = func(url string, id int64) (string, error) {
			return "", errors.New("empty body")
		}
		f.walkToImageStep(t)
		f.sendImage(t, "https://lookaside.fbsbx.com/media/1")

		if _, ok := f.products.get(1); ok {
			t.Error("expected partial product to be rolled back")
		}
	})

	t.Run("first save failure skips the download", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.products.SaveFunc = func(p *model.Product) error { return errors.New("db down") }
		f.walkToImageStep(t)

		got := f.sendImage(t, "https://lookaside.fbsbx.com/media/1")
		if got != f.tr.T(keyUploadImageError, "db down") {
			t.Errorf("unexpected reply: %q", got)
		}
		if len(f.images.Calls) != 0 {
			t.Error("download must not run when the first save fails")
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})
}

func seedTwoProducts(f *dialogFixture) {
	img := "https://catalog.example.com/api/images/a.jpg"
	f.products.seed(
		&model.Product{Name: "Esmeralda 2ct", Price: price("2500"), Category: "Anillo", ImageURL: &img, Available: true, Stock: 1},
		&model.Product{Name: "Collar Real", Description: "oro 18k", Price: price("3900"), Available: true, Stock: 1},
	)
}

func TestDialog_EditFlow(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	seedTwoProducts(f)

	list := f.say(t, "editar")
	if !strings.HasPrefix(list, "✏️ *Editar Producto*") ||
		!strings.Contains(list, "*ID 1*: Esmeralda 2ct\n💰 Precio: $2500") ||
		!strings.Contains(list, "*ID 2*: Collar Real") ||
		!strings.HasSuffix(list, f.tr.T(keyEditListFooter)) {
		t.Errorf("unexpected edit list: %q", list)
	}
	if st := f.states.peek(seller); st.Step != model.StepEditSelectID || st.Action != model.ActionEdit {
		t.Fatalf("expected step 10, got %+v", st)
	}

	if got := f.say(t, "2"); got != f.tr.T(keyEditSelected, "Collar Real") {
		t.Errorf("unexpected field menu: %q", got)
	}
	if got := f.say(t, "3"); got != "✅ Campo seleccionado\n\n"+f.tr.T("edit_prompt_price") {
		t.Errorf("unexpected price prompt: %q", got)
	}
	if st := f.states.peek(seller); st.Step != model.StepEditValue || st.FieldToEdit != model.FieldPrice || st.ProductID != 2 {
		t.Fatalf("expected step 12 editing price of 2, got %+v", st)
	}

	if got := f.say(t, "4100"); got != f.tr.T(keyEditSuccess, "Collar Real", "4100") {
		t.Errorf("unexpected success reply: %q", got)
	}
	p, _ := f.products.get(2)
	if !p.Price.Equal(price("4100")) {
		t.Errorf("expected price 4100, got %s", p.Price)
	}
	if f.states.peek(seller) != nil {
		t.Error("expected state removed after edit")
	}
	if f.tm.Calls != 1 {
		t.Errorf("expected the update to run in one transaction, got %d", f.tm.Calls)
	}
}

func TestDialog_EditEdgeCases(t *testing.T) {
	t.Run("invalid and unknown ids stay at step 10", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")

		if got := f.say(t, "uno"); got != f.tr.T(keyInvalidID) {
			t.Errorf("expected invalid id reply, got %q", got)
		}
		if got := f.say(t, "99"); got != f.tr.T(keyProductNotFound) {
			t.Errorf("expected not found reply, got %q", got)
		}
		if st := f.states.peek(seller); st.Step != model.StepEditSelectID {
			t.Errorf("expected to stay at 10, got %+v", st)
		}
	})

	t.Run("invalid option stays at step 11", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.say(t, "1")
		if got := f.say(t, "7"); got != f.tr.T(keyEditInvalidOption) {
			t.Errorf("expected invalid option reply, got %q", got)
		}
		if st := f.states.peek(seller); st.Step != model.StepEditSelectField {
			t.Errorf("expected to stay at 11, got %+v", st)
		}
	})

	t.Run("unparsable price stays at step 12", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.say(t, "1")
		f.say(t, "3")
		if got := f.say(t, "caro"); got != f.tr.T(keyPriceInvalid) {
			t.Errorf("expected invalid price reply, got %q", got)
		}
		if st := f.states.peek(seller); st == nil || st.Step != model.StepEditValue {
			t.Errorf("expected to stay at 12, got %+v", st)
		}
		p, _ := f.products.get(1)
		if !p.Price.Equal(price("2500")) {
			t.Errorf("price must be untouched, got %s", p.Price)
		}
	})

	t.Run("category omitir and name edits", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.say(t, "1")
		f.say(t, "4")
		f.say(t, "Omitir")
		p, _ := f.products.get(1)
		if p.Category != model.DefaultCategory {
			t.Errorf("expected default category, got %q", p.Category)
		}

		f.say(t, "modificar")
		f.say(t, "1")
		f.say(t, "1")
		f.say(t, "Esmeralda Muzo 3ct")
		p, _ = f.products.get(1)
		if p.Name != "Esmeralda Muzo 3ct" {
			t.Errorf("expected verbatim name, got %q", p.Name)
		}
	})

	t.Run("vanished product cancels the flow", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.say(t, "2")
		f.say(t, "1")
		_ = f.products.Delete(context.Background(), nil, 2)

		if got := f.say(t, "nuevo"); got != f.tr.T(keyProductVanished) {
			t.Errorf("expected vanished reply, got %q", got)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})

	t.Run("repository failure on lookup ends the flow", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.products.FindByIDFunc = func(id int64) (*model.Product, error) { return nil, errors.New("conn reset") }

		if got := f.say(t, "1"); got != f.tr.T(keyEditFlowError) {
			t.Errorf("expected flow error, got %q", got)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})

	t.Run("save failure reports the error", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		f.say(t, "editar")
		f.say(t, "1")
		f.say(t, "2")
		f.products.SaveFunc = func(p *model.Product) error { return errors.New("disk full") }

		if got := f.say(t, "nueva descripción"); got != f.tr.T(keyEditSaveError, "disk full") {
			t.Errorf("unexpected reply: %q", got)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})
}

func TestDialog_DeleteFlow(t *testing.T) {
	t.Run("cancel keeps the product", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.products.seed(&model.Product{ID: 7, Name: "Pendientes", Price: price("800"), Available: true})

		list := f.say(t, "borrar")
		if !strings.HasPrefix(list, "🗑️ *Borrar Producto*") || !strings.Contains(list, "*ID 7*: Pendientes") {
			t.Errorf("unexpected delete list: %q", list)
		}
		if got := f.say(t, "7"); got != f.tr.T(keyDeleteConfirm, "Pendientes", "800") {
			t.Errorf("unexpected confirm prompt: %q", got)
		}
		if got := f.say(t, "no"); !strings.HasPrefix(got, "❌ *Eliminación cancelada*") {
			t.Errorf("unexpected cancel reply: %q", got)
		}
		if _, ok := f.products.get(7); !ok {
			t.Error("product 7 must still exist")
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})

	t.Run("confirm deletes", func(t *testing.T) {
		for _, yes := range []string{"si", "Sí", "YES"} {
			f := newDialogFixture(t, DialogOptions{})
			f.products.seed(&model.Product{ID: 3, Name: "Anillo", Price: price("100")})
			f.say(t, "eliminar")
			f.say(t, "3")
			if got := f.say(t, yes); got != f.tr.T(keyDeleteSuccess) {
				t.Errorf("%q: unexpected reply %q", yes, got)
			}
			if _, ok := f.products.get(3); ok {
				t.Errorf("%q: product must be deleted", yes)
			}
		}
	})

	t.Run("unrecognized answer stays at step 21", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.products.seed(&model.Product{ID: 3, Name: "Anillo", Price: price("100")})
		f.say(t, "borrar")
		f.say(t, "3")
		if got := f.say(t, "tal vez"); got != f.tr.T(keyDeleteUnrecognized) {
			t.Errorf("unexpected reply %q", got)
		}
		if st := f.states.peek(seller); st == nil || st.Step != model.StepDeleteConfirm {
			t.Errorf("expected to stay at 21, got %+v", st)
		}
	})

	t.Run("vanished product on confirm", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.products.seed(&model.Product{ID: 3, Name: "Anillo", Price: price("100")})
		f.say(t, "borrar")
		f.say(t, "3")
		_ = f.products.Delete(context.Background(), nil, 3)
		if got := f.say(t, "sí"); got != f.tr.T(keyProductVanished) {
			t.Errorf("unexpected reply %q", got)
		}
		if f.states.peek(seller) != nil {
			t.Error("expected state removed")
		}
	})
}

func TestDialog_ListingAndEmptyCatalog(t *testing.T) {
	t.Run("catalog formatting", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		seedTwoProducts(f)
		got := f.say(t, "ver productos")

		want := f.tr.T(keyCatalogHeader) +
			"━━━━━━━━━━━━━━━━\n*Esmeralda 2ct*\n💰 Precio: $2500\n🏷️ Categoría: Anillo\n🆔 ID: 1\n━━━━━━━━━━━━━━━━\n\n" +
			"━━━━━━━━━━━━━━━━\n*Collar Real*\n💰 Precio: $3900\n📝 oro 18k\n🆔 ID: 2\n━━━━━━━━━━━━━━━━\n\n" +
			f.tr.T(keyCatalogFooter)
		if got != want {
			t.Errorf("unexpected catalog:\n got: %q\nwant: %q", got, want)
		}
	})

	t.Run("empty catalog messages", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		if got := f.say(t, "ver productos"); got != f.tr.T(keyCatalogEmpty) {
			t.Errorf("unexpected reply %q", got)
		}
		if got := f.say(t, "editar producto"); got != f.tr.T(keyEditListEmpty) {
			t.Errorf("unexpected reply %q", got)
		}
		if got := f.say(t, "borrar producto"); got != f.tr.T(keyDeleteListEmpty) {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("listing failure", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.products.FindAllFunc = func() ([]*model.Product, error) { return nil, errors.New("timeout") }
		if got := f.say(t, "ver productos"); got != f.tr.T(keyListError) {
			t.Errorf("unexpected reply %q", got)
		}
		if got := f.say(t, "editar"); got != f.tr.T(keyListError) {
			t.Errorf("unexpected reply %q", got)
		}
	})
}

func TestDialog_IntentDominance(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	seedTwoProducts(f)

	f.say(t, "subir producto")
	f.say(t, "Esmeralda")

	// LIST answers without touching the flow
	f.say(t, "ver productos")
	if st := f.states.peek(seller); st.Step != model.StepUploadDescription {
		t.Errorf("LIST must not change state, got %+v", st)
	}

	// EDIT replaces the upload
	f.say(t, "editar producto")
	if st := f.states.peek(seller); st.Action != model.ActionEdit || st.Step != model.StepEditSelectID || st.Name != "" {
		t.Errorf("expected a fresh edit state, got %+v", st)
	}

	// WELCOME resets to idle; a plain message then gets the welcome text
	if got := f.say(t, "ayuda"); got != f.tr.T(keyWelcome) {
		t.Errorf("unexpected welcome: %q", got)
	}
	if st := f.states.peek(seller); st == nil || st.Step != model.StepIdle {
		t.Errorf("expected idle state, got %+v", st)
	}
	if got := f.say(t, "hola"); got != f.tr.T(keyWelcome) {
		t.Errorf("expected welcome for idle sender, got %q", got)
	}

	// an empty catalog still drops the previous flow
	g := newDialogFixture(t, DialogOptions{})
	g.say(t, "subir producto")
	g.say(t, "borrar")
	if g.states.peek(seller) != nil {
		t.Error("expected previous flow dropped on empty catalog")
	}
}

func TestDialog_NoStateGetsWelcome(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	if got := f.say(t, "hola"); got != f.tr.T(keyWelcome) {
		t.Errorf("expected welcome, got %q", got)
	}
	if f.states.peek(seller) != nil {
		t.Error("welcome for a stateless sender must not create state")
	}
}

func TestDialog_PerSenderIsolation(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	ctx := context.Background()
	a, b := "111", "222"

	send := func(sender, text string) {
		if _, err := f.uc.Dispatch(ctx, sender, text, nil); err != nil {
			t.Fatalf("dispatch %s %q: %v", sender, text, err)
		}
	}
	send(a, "subir producto")
	send(b, "subir producto")
	send(a, "Producto A")
	send(b, "Producto B")
	send(a, "desc A")

	sa, sb := f.states.peek(a), f.states.peek(b)
	if sa.Name != "Producto A" || sa.Step != model.StepUploadPrice {
		t.Errorf("sender a state corrupted: %+v", sa)
	}
	if sb.Name != "Producto B" || sb.Step != model.StepUploadDescription {
		t.Errorf("sender b state corrupted: %+v", sb)
	}
	if f.locks.Calls != 5 {
		t.Errorf("expected one lock per dispatch, got %d", f.locks.Calls)
	}
}

func TestDialog_Errors(t *testing.T) {
	t.Run("empty sender", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		_, err := f.uc.Dispatch(context.Background(), "", "hola", nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("lock failure", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.locks.LockErr = domain.ErrLockNotAcquired
		_, err := f.uc.Dispatch(context.Background(), seller, "hola", nil)
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			t.Errorf("expected ErrLockNotAcquired, got %v", err)
		}
	})

	t.Run("state store failure", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		f.states.PutErr = fmt.Errorf("redis: connection refused")
		if _, err := f.uc.Dispatch(context.Background(), seller, "subir producto", nil); err == nil {
			t.Error("expected error when the state cannot be stored")
		}
	})

	t.Run("unknown step falls back to welcome", func(t *testing.T) {
		f := newDialogFixture(t, DialogOptions{})
		_ = f.states.Put(context.Background(), seller, &model.ConversationState{Action: model.ActionEdit, Step: model.StepUploadName})
		if got := f.say(t, "x"); got != f.tr.T(keyWelcome) {
			t.Errorf("expected welcome, got %q", got)
		}
		if st := f.states.peek(seller); st == nil || st.Step != model.StepUploadName {
			t.Error("unknown step must leave state unchanged")
		}
	})
}

func TestDialog_Reset(t *testing.T) {
	f := newDialogFixture(t, DialogOptions{})
	f.say(t, "subir producto")
	if err := f.uc.Reset(context.Background(), seller); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if f.states.peek(seller) != nil {
		t.Error("expected state removed")
	}
}
