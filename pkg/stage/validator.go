package stage

// Reason classifies why a proposed transition was rejected
type Reason string

const (
	ReasonAllowed      Reason = ""
	ReasonUnknownStage Reason = "unknown_stage"
	ReasonNoOp         Reason = "no_op"
	ReasonDealClosed   Reason = "deal_closed"
)

// Decision is the outcome of validating a proposed stage transition
type Decision struct {
	Allowed bool
	Reason  Reason
}

// CanTransition decides whether a deal may move between two stages. It is a
// pure predicate: all mutation happens in the pipeline after a positive result.
//
// Backward movement (e.g. NEGOTIATION to CONTACTED) is intentionally legal;
// deals regress in real sales. Terminal stages can never be exited here;
// reopening a closed deal is a separate privileged operation.
func CanTransition(from, to Stage) Decision {
	if !Valid(to) {
		return Decision{Allowed: false, Reason: ReasonUnknownStage}
	}
	if from == to {
		// A non-event for callers, not an error: the card stays put.
		return Decision{Allowed: false, Reason: ReasonNoOp}
	}
	if IsTerminal(from) {
		return Decision{Allowed: false, Reason: ReasonDealClosed}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}
