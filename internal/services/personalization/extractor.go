package personalization

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"go.uber.org/zap"
)

// fieldSpec maps one CallContext field to its payload keys. The primary key is the
// "system__" name used by current platform versions; legacy is the older bare name.
type fieldSpec struct {
	primary  string
	legacy   string
	fallback string
	assign   func(*domain.CallContext, string)
}

var callContextFields = []fieldSpec{
	{"system__caller_id", "caller_id", domain.UnknownValue, func(c *domain.CallContext, v string) { c.CallerID = v }},
	{"system__agent_id", "agent_id", domain.UnknownValue, func(c *domain.CallContext, v string) { c.AgentID = v }},
	{"system__called_number", "called_number", domain.UnknownValue, func(c *domain.CallContext, v string) { c.CalledNumber = v }},
	{"system__conversation_id", "call_sid", domain.UnknownValue, func(c *domain.CallContext, v string) { c.CallSID = v }},
	{"system__call_duration_secs", "", domain.ZeroDuration, func(c *domain.CallContext, v string) { c.CallDurationSecs = v }},
	{"system__time_utc", "", domain.UnknownValue, func(c *domain.CallContext, v string) { c.TimeUTC = v }},
}

// ExtractCallContext normalizes a webhook payload into a CallContext. It never fails:
// fields missing under both names (or sent as null) take their default. payload is a
// decoded JSON object; numbers may be json.Number (UseNumber) or float64.
func ExtractCallContext(ctx context.Context, payload map[string]any) domain.CallContext {
	cc := domain.NewCallContext()
	for _, f := range callContextFields {
		f.assign(&cc, lookupField(payload, f))
	}

	logger.Info(ctx, "received personalization request",
		zap.String("payload", describePayload(payload)),
		zap.String("caller_id", cc.CallerID),
		zap.String("agent_id", cc.AgentID),
		zap.String("call_sid", cc.CallSID),
	)
	logger.Info(ctx, "call details",
		zap.String("call_duration_secs", cc.CallDurationSecs),
		zap.String("time_utc", cc.TimeUTC),
		zap.String("called_number", cc.CalledNumber),
	)

	return cc
}

func lookupField(payload map[string]any, f fieldSpec) string {
	if v, ok := stringValue(payload, f.primary); ok {
		return v
	}
	if f.legacy != "" {
		if v, ok := stringValue(payload, f.legacy); ok {
			return v
		}
	}
	return f.fallback
}

func stringValue(payload map[string]any, key string) (string, bool) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data), true
		}
		return fmt.Sprint(v), true
	}
}

func describePayload(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(data)
}
