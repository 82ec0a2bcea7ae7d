package lifecycle

import "github.com/lexuanthang19/food-deli-deploy/internal/model"

// StatusEvent is an input to the order state machine.  The coordinator's
// own transitions are driven through the table below; anything not listed
// is illegal and rejected rather than silently accepted.
type StatusEvent string

const (
	// EventCashAccepted confirms a pay-in-person order.  Physical payment
	// is collected later at the counter, so the order only reaches
	// Confirmed here, never Paid.
	EventCashAccepted StatusEvent = "cash_accepted"
	// EventSettled records a captured online settlement.
	EventSettled StatusEvent = "settled"
	// EventCheckoutFailed routes an abandoned or failed online checkout to
	// the rollback path.
	EventCheckoutFailed StatusEvent = "checkout_failed"
)

type transitionKey struct {
	from  model.OrderStatus
	event StatusEvent
}

// transitions is the (current state, event) -> next state table.  The
// settlement event is accepted from every non-terminal state because
// staff may already have advanced the order by the time the gateway's
// callback lands.  Checkout failure is only meaningful while the order is
// still Pending and unsettled.
var transitions = map[transitionKey]model.OrderStatus{
	{model.StatusPending, EventCashAccepted}: model.StatusConfirmed,

	{model.StatusPending, EventSettled}:   model.StatusPaid,
	{model.StatusConfirmed, EventSettled}: model.StatusPaid,
	{model.StatusPreparing, EventSettled}: model.StatusPaid,
	{model.StatusServed, EventSettled}:    model.StatusPaid,

	{model.StatusPending, EventCheckoutFailed}: model.StatusCancelled,
}

// Next resolves a state machine step.  The second return value is false
// when the transition is illegal.
func Next(from model.OrderStatus, event StatusEvent) (model.OrderStatus, bool) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	return to, ok
}

// StaffOverrideAllowed reports whether staff may manually move an order to
// the target status.  The manual lane deliberately bypasses the linear
// flow (direct jump to Paid for cash collection, Cancelled from anywhere);
// the only constraint is that the target is a known status value.
func StaffOverrideAllowed(to model.OrderStatus) bool {
	return model.ValidStatus(to)
}
