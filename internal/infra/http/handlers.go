package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ---- webhook ----

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, token := q.Get("hub.mode"), q.Get("hub.verify_token")
	log := logging.With(r.Context(), s.log)

	challenge, ok := s.webhook.VerifyChallenge(mode, token, q.Get("hub.challenge"))
	if !ok {
		log.Warn().Str("mode", mode).Msg("webhook verification failed")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	log.Info().Msg("webhook verified")
	writeText(w, http.StatusOK, challenge)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.With(r.Context(), s.log)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeText(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	if s.opts.AppSecret != "" && !validSignature(s.opts.AppSecret, body, r.Header.Get(signatureHeader)) {
		log.Warn().Msg("webhook signature mismatch")
		metrics.IncWebhookDelivery("bad_signature")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	status, err := s.webhook.HandlePayload(r.Context(), body)
	if err != nil {
		log.Error().Err(err).Msg("error processing webhook message")
		writeText(w, http.StatusInternalServerError, "Error processing message: "+err.Error())
		return
	}
	writeText(w, http.StatusOK, status)
}

func (s *Server) handleWebhookTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "active",
		"message":   "WhatsApp webhook is running",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "UP",
		"service": "Esmeraldas WhatsApp Webhook",
	})
}

// ---- images ----

func (s *Server) handleImagesHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Image Service is Running 📷")
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := s.images.Open(name)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidArgument):
		http.NotFound(w, r)
		return
	case err != nil:
		logging.With(r.Context(), s.log).Error().Err(err).Str("file", name).Msg("error serving image")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	var modTime time.Time
	if st, err := f.Stat(); err == nil {
		modTime = st.ModTime()
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	http.ServeContent(w, r, name, modTime, f)
}

// ---- catalog ----

type productList struct {
	Items []*model.Product `json:"items"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListVisible(r.Context())
	if err != nil {
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, productList{Items: nonNil(products)})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	p, err := s.catalog.GetVisible(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "invalid id", http.StatusBadRequest)
	case err != nil:
		http.Error(w, "Failed to get product", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

// ---- admin ----

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, productList{Items: nonNil(products)})
}

func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	sender := chi.URLParam(r, "sender")
	if err := s.dialog.Reset(r.Context(), sender); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to reset conversation", http.StatusInternalServerError)
		return
	}
	logging.With(r.Context(), s.log).Info().Str("sender", sender).Msg("conversation reset by admin")
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(p []*model.Product) []*model.Product {
	if p == nil {
		return []*model.Product{}
	}
	return p
}
