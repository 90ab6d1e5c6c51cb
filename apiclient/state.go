package apiclient

// State is the lifecycle position of one logical request
type State int

const (
	StateInitial State = iota
	StateSent
	StateFailed401Retrying
	StateSuccess
	StateLoggedOut
	StateFailedOther
)

var stateNames = map[State]string{
	StateInitial:           "initial",
	StateSent:              "sent",
	StateFailed401Retrying: "failed_401_retrying",
	StateSuccess:           "success",
	StateLoggedOut:         "logged_out",
	StateFailedOther:       "failed_other",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can follow
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateLoggedOut || s == StateFailedOther
}

// StateObserver is called synchronously on every transition. The request is a
// copy but shares its Header and Query maps with the live request.
type StateObserver func(req PendingRequest, from, to State)

func (c *Client) transition(pr *PendingRequest, to State) {
	from := pr.state
	pr.state = to
	c.logger.Debug().
		Str("request_id", pr.ID).
		Str("method", pr.Method).
		Str("path", pr.Path).
		Stringer("from", from).
		Stringer("to", to).
		Msg("Request state")
	if c.observer != nil {
		c.observer(*pr, from, to)
	}
}
