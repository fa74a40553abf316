package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

// Compile-time check
var _ DialogUseCase = (*dialogUC)(nil)

// DialogUseCase turns one inbound seller message into one reply, driving the
// upload, edit and delete flows.
type DialogUseCase interface {
	Dispatch(ctx context.Context, senderID, text string, image *model.ImagePayload) (string, error)
	// Reset drops whatever flow the sender is in.
	Reset(ctx context.Context, senderID string) error
}

type DialogOptions struct {
	// RollbackOnImageFailure deletes the pre-saved product when the photo
	// cannot be ingested. Off by default: the partial product stays.
	RollbackOnImageFailure bool
	// DefaultImageURL, when set, lets "omitir" finish an upload without a photo.
	DefaultImageURL string
}

// turn carries one message through a step handler.
type turn struct {
	sender string
	raw    string // trimmed, case preserved
	norm   string // trimmed, lower-cased
	image  *model.ImagePayload
	state  *model.ConversationState
}

// stepHandler returns the next state (nil ends the flow) and the reply.
type stepHandler func(ctx context.Context, t *turn) (*model.ConversationState, string)

type stepKey struct {
	action model.Action
	step   model.Step
}

type dialogUC struct {
	products repository.ProductRepository
	tm       repository.TransactionManager
	states   repository.ConversationStore
	locks    repository.SenderLocker
	images   adapter.ImageIngest
	tr       Translator
	opts     DialogOptions
	log      *zerolog.Logger

	routes map[stepKey]stepHandler
	now    func() time.Time
}

func NewDialogUseCase(
	products repository.ProductRepository,
	tm repository.TransactionManager,
	states repository.ConversationStore,
	locks repository.SenderLocker,
	images adapter.ImageIngest,
	tr Translator,
	opts DialogOptions,
	logger *zerolog.Logger,
) *dialogUC {
	l := logger.With().Str("component", "DialogUC").Logger()
	d := &dialogUC{
		products: products,
		tm:       tm,
		states:   states,
		locks:    locks,
		images:   images,
		tr:       tr,
		opts:     opts,
		log:      &l,
		now:      time.Now,
	}
	d.routes = map[stepKey]stepHandler{
		{model.ActionUpload, model.StepUploadName}:        d.uploadName,
		{model.ActionUpload, model.StepUploadDescription}: d.uploadDescription,
		{model.ActionUpload, model.StepUploadPrice}:       d.uploadPrice,
		{model.ActionUpload, model.StepUploadCategory}:    d.uploadCategory,
		{model.ActionUpload, model.StepUploadPhone}:       d.uploadPhone,
		{model.ActionUpload, model.StepUploadImage}:       d.uploadImage,

		{model.ActionEdit, model.StepEditSelectID}:    d.editSelectProduct,
		{model.ActionEdit, model.StepEditSelectField}: d.editSelectField,
		{model.ActionEdit, model.StepEditValue}:       d.editApplyValue,

		{model.ActionDelete, model.StepDeleteSelectID}: d.deleteSelectProduct,
		{model.ActionDelete, model.StepDeleteConfirm}:  d.deleteConfirm,
	}
	return d
}

func (d *dialogUC) Dispatch(ctx context.Context, senderID, text string, image *model.ImagePayload) (string, error) {
	if senderID == "" {
		return "", fmt.Errorf("%w: empty sender", domain.ErrInvalidArgument)
	}
	ctx = logging.WithSenderID(ctx, senderID)
	defer logging.TraceDuration(logging.With(ctx, d.log), "DialogUC.Dispatch")()

	unlock, err := d.locks.Lock(ctx, senderID)
	if err != nil {
		return "", fmt.Errorf("lock sender: %w", err)
	}
	defer unlock()

	intent, norm := ClassifyIntent(text)
	metrics.IncIntent(intent.String())
	t := &turn{sender: senderID, raw: strings.TrimSpace(text), norm: norm, image: image}

	switch intent {
	case IntentWelcome:
		if err := d.states.Put(ctx, senderID, d.touch(model.NewConversation(model.ActionNone, model.StepIdle))); err != nil {
			return "", fmt.Errorf("reset state: %w", err)
		}
		return d.tr.T(keyWelcome), nil
	case IntentUpload:
		if err := d.states.Put(ctx, senderID, d.touch(model.NewConversation(model.ActionUpload, model.StepUploadName))); err != nil {
			return "", fmt.Errorf("start upload: %w", err)
		}
		return d.tr.T(keyUploadStart), nil
	case IntentEdit:
		return d.startSelection(ctx, t, model.ActionEdit)
	case IntentDelete:
		return d.startSelection(ctx, t, model.ActionDelete)
	case IntentList:
		return d.renderCatalog(ctx), nil
	}

	st, err := d.states.Get(ctx, senderID)
	if errors.Is(err, domain.ErrNotFound) {
		return d.tr.T(keyWelcome), nil
	}
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}

	handler, ok := d.routes[stepKey{st.Action, st.Step}]
	if !ok {
		return d.tr.T(keyWelcome), nil
	}
	t.state = st
	from := st.Step
	next, reply := handler(ctx, t)

	if next == nil {
		metrics.IncTransition(string(st.Action), strconv.Itoa(int(from)), "finish")
		if err := d.states.Remove(ctx, senderID); err != nil {
			return "", fmt.Errorf("clear state: %w", err)
		}
		return reply, nil
	}
	outcome := "advance"
	if next.Step == from {
		outcome = "stay"
	}
	metrics.IncTransition(string(st.Action), strconv.Itoa(int(from)), outcome)
	if err := d.states.Put(ctx, senderID, d.touch(next)); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	return reply, nil
}

func (d *dialogUC) Reset(ctx context.Context, senderID string) error {
	if senderID == "" {
		return fmt.Errorf("%w: empty sender", domain.ErrInvalidArgument)
	}
	unlock, err := d.locks.Lock(ctx, senderID)
	if err != nil {
		return fmt.Errorf("lock sender: %w", err)
	}
	defer unlock()
	return d.states.Remove(ctx, senderID)
}

func (d *dialogUC) touch(st *model.ConversationState) *model.ConversationState {
	st.UpdatedAt = d.now()
	return st
}

// startSelection lists products and moves the sender to the id prompt of
// the edit or delete flow. When nothing can be listed any previous flow is
// dropped so the command still replaces it.
func (d *dialogUC) startSelection(ctx context.Context, t *turn, action model.Action) (string, error) {
	header, footer, empty, step := keyEditListHeader, keyEditListFooter, keyEditListEmpty, model.StepEditSelectID
	if action == model.ActionDelete {
		header, footer, empty, step = keyDeleteListHeader, keyDeleteListFooter, keyDeleteListEmpty, model.StepDeleteSelectID
	}

	products, err := d.products.FindAll(ctx, repository.NoTX)
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Str("action", string(action)).Msg("list products failed")
		return d.tr.T(keyListError), d.states.Remove(ctx, t.sender)
	}
	if len(products) == 0 {
		return d.tr.T(empty), d.states.Remove(ctx, t.sender)
	}

	var b strings.Builder
	b.WriteString(d.tr.T(header))
	for _, p := range products {
		b.WriteString(d.tr.T(keyListItem, p.ID, p.Name, p.Price.String()))
	}
	b.WriteString(d.tr.T(footer))

	if err := d.states.Put(ctx, t.sender, d.touch(model.NewConversation(action, step))); err != nil {
		return "", fmt.Errorf("start %s: %w", action, err)
	}
	return b.String(), nil
}

// renderCatalog formats every product. It never touches state.
func (d *dialogUC) renderCatalog(ctx context.Context) string {
	products, err := d.products.FindAll(ctx, repository.NoTX)
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Msg("list catalog failed")
		return d.tr.T(keyListError)
	}
	if len(products) == 0 {
		return d.tr.T(keyCatalogEmpty)
	}

	var b strings.Builder
	b.WriteString(d.tr.T(keyCatalogHeader))
	for _, p := range products {
		b.WriteString(d.tr.T(keyCatalogItem, p.Name, p.Price.String()))
		if p.Description != "" {
			b.WriteString(d.tr.T(keyCatalogDescription, p.Description))
		}
		if p.Category != "" {
			b.WriteString(d.tr.T(keyCatalogCategory, p.Category))
		}
		b.WriteString(d.tr.T(keyCatalogItemFooter, p.ID))
	}
	b.WriteString(d.tr.T(keyCatalogFooter))
	return b.String()
}

func parseProductID(t *turn) (int64, bool) {
	id, err := strconv.ParseInt(t.norm, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
