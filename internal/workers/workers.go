package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"opsdesk/internal/engine/invoices"
	"opsdesk/internal/engine/payments"
	"opsdesk/internal/platform/repositories"
)

// SweepOverdue flips sent invoices and payment rows past their due dates to
// overdue. Runs on a timer; the REST API exposes the same transition manually.
func SweepOverdue(invoiceRepo *invoices.Repository, paymentRepo *payments.Repository) {
	now := time.Now().Unix()

	flippedInvoices, err := invoiceRepo.SweepOverdue(now)
	if err != nil {
		log.Error().Err(err).Msg("Worker: invoice overdue sweep failed")
	}

	flippedPayments, err := paymentRepo.SweepOverdue(now)
	if err != nil {
		log.Error().Err(err).Msg("Worker: payment overdue sweep failed")
	}

	if flippedInvoices > 0 || flippedPayments > 0 {
		log.Info().
			Int64("invoices", flippedInvoices).
			Int64("payments", flippedPayments).
			Msg("Worker: marked overdue")
	}
}

// ResetMonthlyUsage zeroes each org's e-signature counter once a calendar
// month has passed since the last reset, measured in the org's timezone.
func ResetMonthlyUsage(orgRepo *repositories.OrganizationRepository) {
	orgs, err := orgRepo.ListActive()
	if err != nil {
		log.Error().Err(err).Msg("Worker: usage reset listing failed")
		return
	}

	now := time.Now()
	for _, org := range orgs {
		loc, err := time.LoadLocation(org.Timezone)
		if err != nil {
			loc = time.UTC
		}

		last := time.Unix(org.ESignatureResetAt, 0).In(loc)
		current := now.In(loc)
		if last.Year() == current.Year() && last.Month() == current.Month() {
			continue
		}

		if err := orgRepo.ResetESignatures(org.ID, now.Unix()); err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("Worker: usage reset failed")
			continue
		}
		log.Info().Str("org_id", org.ID).Msg("Worker: reset monthly e-signature usage")
	}
}
