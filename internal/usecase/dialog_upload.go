package usecase

import (
	"context"
	"time"

	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

func (d *dialogUC) uploadName(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	st.Name = t.raw
	st.Step = model.StepUploadDescription
	return st, d.tr.T(keyUploadNameSaved, t.raw)
}

func (d *dialogUC) uploadDescription(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	st.Description = t.raw
	st.Step = model.StepUploadPrice
	return st, d.tr.T(keyUploadDescription)
}

func (d *dialogUC) uploadPrice(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	price, err := model.ParsePrice(t.raw)
	if err != nil {
		return st, d.tr.T(keyPriceInvalid)
	}
	st.Price = &price
	st.Step = model.StepUploadCategory
	return st, d.tr.T(keyUploadPriceSaved, price.String())
}

func (d *dialogUC) uploadCategory(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	if t.norm == model.SkipKeyword {
		st.Category = model.DefaultCategory
	} else {
		st.Category = t.raw
	}
	st.Step = model.StepUploadPhone
	return st, d.tr.T(keyUploadCategorySaved)
}

func (d *dialogUC) uploadPhone(ctx context.Context, t *turn) (*model.ConversationState, string) {
	st := t.state
	st.WhatsappNumber = t.raw
	st.Step = model.StepUploadImage
	return st, d.tr.T(keyUploadPhoneSaved)
}

// uploadImage ends the upload flow whatever the ingest outcome, except when
// no image arrived: then the sender stays at the image prompt.
func (d *dialogUC) uploadImage(ctx context.Context, t *turn) (*model.ConversationState, string) {
	if t.image.Empty() {
		if d.opts.DefaultImageURL != "" && t.norm == model.SkipKeyword {
			return nil, d.completeUpload(ctx, t.state, "", d.opts.DefaultImageURL)
		}
		return t.state, d.tr.T(keyUploadImageMissing)
	}
	return nil, d.completeUpload(ctx, t.state, t.image.URL, "")
}

// completeUpload saves the draft, stores its photo and saves again with the
// public image URL. Exactly one of mediaURL and fixedImageURL is set.
func (d *dialogUC) completeUpload(ctx context.Context, st *model.ConversationState, mediaURL, fixedImageURL string) string {
	l := logging.With(ctx, d.log)

	product, err := model.NewProductFromDraft(st)
	if err != nil {
		l.Error().Err(err).Msg("incomplete upload draft")
		metrics.IncImageIngest("save_failed")
		return d.tr.T(keyUploadImageError, err.Error())
	}
	if err := d.products.Save(ctx, repository.NoTX, product); err != nil {
		l.Error().Err(err).Msg("save product failed")
		metrics.IncImageIngest("save_failed")
		return d.tr.T(keyUploadImageError, err.Error())
	}

	imageURL := fixedImageURL
	if imageURL == "" {
		start := time.Now()
		imageURL, err = d.images.DownloadAndSaveImage(ctx, mediaURL, product.ID)
		if err != nil {
			l.Error().Err(err).Int64("product_id", product.ID).Dur("duration", time.Since(start)).Msg("image ingest failed")
			metrics.IncImageIngest("download_failed")
			d.discardPartial(ctx, product.ID)
			return d.tr.T(keyUploadImageError, err.Error())
		}
	}

	product.SetImage(imageURL)
	if err := d.products.Save(ctx, repository.NoTX, product); err != nil {
		l.Error().Err(err).Int64("product_id", product.ID).Msg("attach image failed")
		metrics.IncImageIngest("save_failed")
		d.discardPartial(ctx, product.ID)
		return d.tr.T(keyUploadImageError, err.Error())
	}

	metrics.IncImageIngest("ok")
	l.Info().Int64("product_id", product.ID).Msg("product uploaded")
	return d.tr.T(keyUploadSuccess, product.Name, product.Price.String(), product.Description)
}

// discardPartial deletes a product that never got its image, if configured to.
func (d *dialogUC) discardPartial(ctx context.Context, productID int64) {
	l := logging.With(ctx, d.log)
	if !d.opts.RollbackOnImageFailure {
		l.Warn().Int64("product_id", productID).Msg("product left without image")
		return
	}
	if err := d.products.Delete(ctx, repository.NoTX, productID); err != nil {
		l.Error().Err(err).Int64("product_id", productID).Msg("rollback of partial product failed")
		return
	}
	metrics.IncImageIngest("rolled_back")
}
