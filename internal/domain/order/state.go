package order

// Ordinary lifecycle:
//
//	pending --confirm--> in_process --fulfil--> shipped
//	pending/in_process --cancel--> cancelled
//
// shipped and cancelled are terminal for the ordinary flow. SetStatus is the
// administrative escape hatch and may move an order between any two statuses.

// CancelOutcome reports what a cancellation request did.
type CancelOutcome int

const (
	CancelApplied CancelOutcome = iota
	CancelAlreadyShipped
	CancelAlreadyCancelled
)

var ordinaryTransitions = map[Status][]Status{
	StatusPending:   {StatusInProcess, StatusCancelled},
	StatusInProcess: {StatusShipped, StatusCancelled},
	StatusShipped:   {},
	StatusCancelled: {},
}

func canTransition(from, to Status) bool {
	for _, next := range ordinaryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MarkInProcess moves a pending order to in_process on gateway confirmation.
func (o *Order) MarkInProcess() error {
	if !canTransition(o.Status, StatusInProcess) {
		return ErrInvalidTransition
	}
	o.Status = StatusInProcess
	o.touch()
	return nil
}

// MarkShipped records fulfilment of a confirmed order.
func (o *Order) MarkShipped() error {
	if !canTransition(o.Status, StatusShipped) {
		return ErrInvalidTransition
	}
	o.Status = StatusShipped
	o.touch()
	return nil
}

// Cancel transitions to cancelled unless the order already reached a terminal
// state; terminal states are reported, not treated as errors.
func (o *Order) Cancel() CancelOutcome {
	switch o.Status {
	case StatusShipped:
		return CancelAlreadyShipped
	case StatusCancelled:
		return CancelAlreadyCancelled
	}
	o.Status = StatusCancelled
	o.touch()
	return CancelApplied
}

// SetStatus applies an administrative override. Any status is reachable from
// any status, including re-opening terminal ones; only unknown status values
// are rejected.
func (o *Order) SetStatus(s Status) error {
	if _, err := ParseStatus(string(s)); err != nil {
		return err
	}
	o.Status = s
	o.touch()
	return nil
}
