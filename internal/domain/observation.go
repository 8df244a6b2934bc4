package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ObservationSource names where a payment-state report came from
type ObservationSource string

const (
	SourcePoll    ObservationSource = "poll"
	SourceWebhook ObservationSource = "webhook"
	SourceCharge  ObservationSource = "charge"
)

// NormalizedStatus is a gateway payment state mapped onto the shared vocabulary
type NormalizedStatus string

const (
	NormalizedApproved NormalizedStatus = "approved"
	NormalizedRejected NormalizedStatus = "rejected"
	NormalizedPending  NormalizedStatus = "pending"
	NormalizedOther    NormalizedStatus = "other"
)

// Observation is a single report of a charge's payment state
type Observation struct {
	Amount            *decimal.Decimal
	RawData           []byte
	Source            ObservationSource
	Status            NormalizedStatus
	ChargeID          string
	ExternalReference string
	Detail            string // provider status detail, e.g. a rejection reason
}

// ReconciliationOutcome is the kind of result a reconciliation produced
type ReconciliationOutcome string

const (
	OutcomeApplied  ReconciliationOutcome = "applied"
	OutcomeNoChange ReconciliationOutcome = "no_change"
	OutcomeSkipped  ReconciliationOutcome = "skipped"
	OutcomeNotFound ReconciliationOutcome = "not_found"
)

// Skip reasons reported with OutcomeSkipped / OutcomeNoChange
const (
	ReasonUnmatched       = "unmatched"
	ReasonAlreadyApproved = "already_approved"
	ReasonAlreadyRejected = "already_rejected"
	ReasonTerminal        = "terminal_status"
	ReasonNotFinal        = "not_final"
	ReasonRefunded        = "refunded"
)

// ReconciliationResult describes what reconciling an observation did
type ReconciliationResult struct {
	Order          *Order
	Outcome        ReconciliationOutcome
	Reason         string
	PreviousStatus OrderStatus
}

// Changed returns true when the order was written
func (r *ReconciliationResult) Changed() bool {
	return r.Outcome == OutcomeApplied
}

func (r *ReconciliationResult) String() string {
	if r.Reason != "" {
		return fmt.Sprintf("%s(%s)", r.Outcome, r.Reason)
	}
	return string(r.Outcome)
}

// Decision is the pure state-machine verdict for one order and one observation.
type Decision struct {
	NewStatus        OrderStatus
	NewPaymentStatus PaymentStatus
	Note             string
	Reason           string
	Apply            bool
	BackfillCharge   bool
}

// Decide applies the reconciliation rules to a snapshot of an order. It does
// no I/O; callers persist the decision under a row lock.
func Decide(o *Order, obs *Observation) Decision {
	switch obs.Status {
	case NormalizedApproved:
		if o.PaymentStatus == PaymentStatusApproved {
			return Decision{Reason: ReasonAlreadyApproved}
		}
		if o.PaymentStatus == PaymentStatusRefunded {
			return Decision{Reason: ReasonRefunded}
		}
		if o.Status.IsTerminal() {
			return Decision{Reason: ReasonTerminal}
		}
		return Decision{
			Apply:            true,
			NewStatus:        OrderStatusConfirmed,
			NewPaymentStatus: PaymentStatusApproved,
			BackfillCharge:   obs.ChargeID != "" && !o.HasCharge(),
			Note:             fmt.Sprintf("payment approved (%s)", obs.Source),
		}

	case NormalizedRejected:
		if o.PaymentStatus == PaymentStatusRefunded {
			return Decision{Reason: ReasonRefunded}
		}
		if o.PaymentStatus == PaymentStatusApproved {
			// a recorded approval outranks any later rejection, including one
			// for a second charge opened while the first was being paid
			return Decision{Reason: ReasonAlreadyApproved}
		}
		next := o.Status
		if obs.Source == SourceCharge && !o.Status.IsTerminal() {
			next = OrderStatusNew
		}
		if o.PaymentStatus == PaymentStatusRejected && next == o.Status {
			return Decision{Reason: ReasonAlreadyRejected}
		}
		note := fmt.Sprintf("payment rejected (%s)", obs.Source)
		if obs.Detail != "" {
			note += ": " + obs.Detail
		}
		return Decision{
			Apply:            true,
			NewStatus:        next,
			NewPaymentStatus: PaymentStatusRejected,
			Note:             note,
		}
	}
	return Decision{Reason: ReasonNotFinal}
}
