package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/logging"
)

func (d *dialogUC) editSelectProduct(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	id, ok := parseProductID(t)
	if !ok {
		return st, d.tr.T(keyInvalidID)
	}
	p, err := d.products.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return st, d.tr.T(keyProductNotFound)
	}
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Int64("product_id", id).Msg("load product for edit failed")
		return nil, d.tr.T(keyEditFlowError)
	}
	st.ProductID = p.ID
	st.Step = model.StepEditSelectField
	return st, d.tr.T(keyEditSelected, p.Name)
}

func (d *dialogUC) editSelectField(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	field, ok := model.FieldByOption(t.norm)
	if !ok {
		return st, d.tr.T(keyEditInvalidOption)
	}
	st.FieldToEdit = field
	st.Step = model.StepEditValue
	return st, d.tr.T(keyEditFieldSelected, d.tr.T(keyEditPromptPrefix+string(field)))
}

// editApplyValue reloads the product under a row lock, applies the new value
// and saves it. An unparsable price keeps the sender at this step.
func (d *dialogUC) editApplyValue(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	var updated *model.Product

	err := d.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := d.products.FindByID(ctx, tx, st.ProductID)
		if err != nil {
			return err
		}
		if err := p.ApplyEdit(st.FieldToEdit, t.raw); err != nil {
			return err
		}
		if err := d.products.Save(ctx, tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})

	switch {
	case err == nil:
		return nil, d.tr.T(keyEditSuccess, updated.Name, updated.Price.String())
	case errors.Is(err, domain.ErrNotFound):
		return nil, d.tr.T(keyProductVanished)
	case errors.Is(err, domain.ErrInvalidPrice):
		return st, d.tr.T(keyPriceInvalid)
	default:
		logging.With(ctx, d.log).Error().Err(err).Int64("product_id", st.ProductID).Msg("update product failed")
		return nil, d.tr.T(keyEditSaveError, err.Error())
	}
}
