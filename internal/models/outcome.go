package models

// Outcome is the result of evaluating a booking request.
type Outcome string

const (
	OutcomeAccepted             Outcome = "accepted"
	OutcomeRejectedInvalidInput Outcome = "rejected_invalid_input"
	OutcomeRejectedWindow       Outcome = "rejected_window"
	OutcomeRejectedSelfOverlap  Outcome = "rejected_self_overlap"
	OutcomeRejectedOtherOverlap Outcome = "rejected_other_overlap"
)

// IsContention reports whether the rejection was caused by another reservation.
func (o Outcome) IsContention() bool {
	return o == OutcomeRejectedSelfOverlap || o == OutcomeRejectedOtherOverlap
}

// Reason details why a request was rejected.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnknownType     Reason = "unknown_resource_type"
	ReasonInvalidUnit     Reason = "invalid_duration_unit"
	ReasonInvalidDuration Reason = "invalid_duration_value"
	ReasonInvalidDate     Reason = "invalid_start_date"
	ReasonOutsideWindow   Reason = "outside_booking_window"
	ReasonSelfOverlap     Reason = "self_overlap"
	ReasonOtherOverlap    Reason = "other_overlap"
)

// ReasonClass groups reasons for the request layer.
type ReasonClass string

const (
	ClassNone         ReasonClass = ""
	ClassInvalidInput ReasonClass = "invalid_input"
	ClassPolicy       ReasonClass = "policy_rejection"
	ClassContention   ReasonClass = "contention_rejection"
)

// Class maps a reason onto the rejection taxonomy.
func (r Reason) Class() ReasonClass {
	switch r {
	case ReasonUnknownType, ReasonInvalidUnit, ReasonInvalidDuration, ReasonInvalidDate:
		return ClassInvalidInput
	case ReasonOutsideWindow:
		return ClassPolicy
	case ReasonSelfOverlap, ReasonOtherOverlap:
		return ClassContention
	default:
		return ClassNone
	}
}
