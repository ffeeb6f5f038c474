package httputils

// RequestError is the body of every failed request
type RequestError struct {
	Error string `json:"error"`
	// Kind is set for ledger failures, eg. INSUFFICIENT_BALANCE
	Kind string `json:"kind,omitempty"`
}
