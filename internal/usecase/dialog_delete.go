package usecase

import (
	"context"
	"errors"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/logging"
)

func (d *dialogUC) deleteSelectProduct(ctx context.Context, t *turn) (*model.ConversationState, string) {
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
		logging.With(ctx, d.log).Error().Err(err).Int64("product_id", id).Msg("load product for delete failed")
		return nil, d.tr.T(keyDeleteFlowError)
	}
	st.ProductID = p.ID
	st.Step = model.StepDeleteConfirm
	return st, d.tr.T(keyDeleteConfirm, p.Name, p.Price.String())
}

func (d *dialogUC) deleteConfirm(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	switch t.norm {
	case "si", "sí", "yes":
	case "no", "cancelar":
		return nil, d.tr.T(keyDeleteCancelled)
	default:
		return st, d.tr.T(keyDeleteUnrecognized)
	}

	err := d.products.Delete(ctx, repository.NoTX, st.ProductID)
	switch {
	case err == nil:
		logging.With(ctx, d.log).Info().Int64("product_id", st.ProductID).Msg("product deleted")
		return nil, d.tr.T(keyDeleteSuccess)
	case errors.Is(err, domain.ErrNotFound):
		return nil, d.tr.T(keyProductVanished)
	default:
		logging.With(ctx, d.log).Error().Err(err).Int64("product_id", st.ProductID).Msg("delete product failed")
		return nil, d.tr.T(keyDeleteFlowError)
	}
}
