package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"opsdesk/internal/engine/identity"
	"opsdesk/internal/pkg/errors"
)

// WebhookHandler ingests identity-provider events. Delivery is at-least-once
// and unordered, so every path answers 200 once the signature checks out.
type WebhookHandler struct {
	service *identity.Service
	secret  string
}

func NewWebhookHandler(service *identity.Service, secret string) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret}
}

type webhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *WebhookHandler) HandleIdentityEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unable to read payload", nil)
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if !identity.VerifySignature(h.secret, body, signature) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid webhook signature", nil)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid webhook payload", nil)
		return
	}

	if err := h.dispatch(&event); err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Webhook processing failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Webhook processing failed", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *WebhookHandler) dispatch(event *webhookEvent) error {
	switch event.Type {
	case "organization.created":
		var payload identity.OrgPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		_, err := h.service.SyncOrgCreated(&payload)
		return err
	case "organization.updated":
		var payload identity.OrgPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncOrgUpdated(&payload)
	case "organization.deleted":
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncOrgDeleted(payload.ID)
	case "user.created":
		var payload identity.UserPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		_, err := h.service.SyncUserCreated(&payload)
		return err
	case "user.updated":
		var payload identity.UserPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncUserUpdated(&payload)
	case "user.deleted":
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncUserDeleted(payload.ID)
	case "organizationMembership.created":
		var payload identity.MembershipPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncMembershipCreated(&payload)
	case "organizationMembership.deleted":
		var payload identity.MembershipPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		return h.service.SyncMembershipDeleted(&payload)
	default:
		// Unknown event types are acknowledged so the provider stops retrying
		log.Debug().Str("type", event.Type).Msg("Ignoring unhandled webhook event")
		return nil
	}
}
