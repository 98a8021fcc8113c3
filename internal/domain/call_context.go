package domain

// CallContext is the canonical identity of a call as seen by the personalization webhook.
// Every field is always populated; absent values carry UnknownValue (or ZeroDuration).
type CallContext struct {
	CallerID         string `json:"caller_id"`
	AgentID          string `json:"agent_id"`
	CalledNumber     string `json:"called_number"`
	CallSID          string `json:"call_sid"`
	CallDurationSecs string `json:"call_duration_secs"`
	TimeUTC          string `json:"time_utc"`
}

// NewCallContext returns a context with every field set to its default.
func NewCallContext() CallContext {
	return CallContext{
		CallerID:         UnknownValue,
		AgentID:          UnknownValue,
		CalledNumber:     UnknownValue,
		CallSID:          UnknownValue,
		CallDurationSecs: ZeroDuration,
		TimeUTC:          UnknownValue,
	}
}

// HasCaller reports whether the caller id was supplied by the sender.
func (c CallContext) HasCaller() bool {
	return c.CallerID != "" && c.CallerID != UnknownValue
}

// HasCallSID reports whether a call or conversation id was supplied by the sender.
func (c CallContext) HasCallSID() bool {
	return c.CallSID != "" && c.CallSID != UnknownValue
}

// InboundCall is the subset of Twilio's voice webhook form the bridge uses.
type InboundCall struct {
	CallSID string `json:"callSid"`
	From    string `json:"from"`
	To      string `json:"to"`
}
