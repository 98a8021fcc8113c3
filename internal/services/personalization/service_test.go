package personalization

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ClareAI/astra-personalization-bridge/internal/core/session"
	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/internal/profile"
	"github.com/ClareAI/astra-personalization-bridge/internal/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type composerFunc func(domain.CustomerProfile) (prompts.Composition, error)

func (f composerFunc) Compose(p domain.CustomerProfile) (prompts.Composition, error) { return f(p) }

type stubCalls struct {
	info  session.CallInfo
	found bool
	err   error
}

func (s stubCalls) Lookup(context.Context, string) (session.CallInfo, bool, error) {
	return s.info, s.found, s.err
}

func newTestService(t *testing.T, calls CallLookup) *Service {
	t.Helper()
	composer, err := prompts.NewDefaultComposer()
	require.NoError(t, err)
	return NewService(profile.NewDirectoryResolver(profile.DefaultDirectory(), "SA"), composer, calls)
}

func TestPersonalize_KnownCaller(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Personalize(context.Background(), []byte(`{"system__caller_id": "+201069440375"}`))

	require.False(t, res.Fallback)
	require.NoError(t, res.Err)
	assert.Equal(t, "عمران", res.Response.DynamicVariables["customer_name"])
	assert.Equal(t, "1250", res.Response.DynamicVariables["loyalty_points"])
	assert.Equal(t, "ar", res.Response.ConversationConfigOverride.Agent.Language)
	require.NotNil(t, res.Response.ConversationConfigOverride.Agent.Prompt)
	assert.Contains(t, res.Response.ConversationConfigOverride.Agent.Prompt.Prompt, "مميز")
	assert.Contains(t, res.Response.ConversationConfigOverride.Agent.FirstMessage, "عمران")
	assert.NotNil(t, res.Response.ConversationConfigOverride.TTS)
}

func TestPersonalize_UnknownLegacyCallerGetsGuest(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Personalize(context.Background(), []byte(`{"caller_id": "+000000000"}`))

	require.False(t, res.Fallback)
	assert.Equal(t, domain.GuestProfile().DynamicVariables(), res.Response.DynamicVariables)
	assert.Equal(t, "ar", res.Response.ConversationConfigOverride.Agent.Language)
}

func TestPersonalize_EmptyObjectGetsGuest(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Personalize(context.Background(), []byte(`{}`))

	require.False(t, res.Fallback)
	assert.Equal(t, "زائر", res.Response.DynamicVariables["customer_name"])
}

func TestPersonalize_FallbackCases(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty body", "", ErrMalformedBody},
		{"whitespace", "   \n", ErrMalformedBody},
		{"not json", "caller_id=+201069440375", ErrMalformedBody},
		{"truncated", `{"system__caller_id": "+2010`, ErrMalformedBody},
		{"trailing data", `{"caller_id": "+1"} xyz`, ErrMalformedBody},
		{"array", `["+201069440375"]`, ErrUnexpectedShape},
		{"string", `"+201069440375"`, ErrUnexpectedShape},
		{"null", `null`, ErrUnexpectedShape},
	}

	svc := newTestService(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Personalize(context.Background(), []byte(tt.body))

			assert.True(t, res.Fallback)
			assert.ErrorIs(t, res.Err, tt.want)
			assert.Equal(t, domain.FallbackResponse(), res.Response)
		})
	}
}

func TestPersonalize_CompositionErrorFallsBack(t *testing.T) {
	svc := NewService(
		profile.NewDirectoryResolver(profile.DefaultDirectory(), "SA"),
		composerFunc(func(domain.CustomerProfile) (prompts.Composition, error) {
			return prompts.Composition{}, errors.New("template broke")
		}),
		nil,
	)

	res := svc.Personalize(context.Background(), []byte(`{"system__caller_id": "+201069440375"}`))

	assert.True(t, res.Fallback)
	assert.ErrorIs(t, res.Err, ErrComposition)
	assert.Equal(t, domain.FallbackResponse(), res.Response)
}

func TestPersonalize_PanicFallsBack(t *testing.T) {
	svc := NewService(
		profile.NewDirectoryResolver(profile.DefaultDirectory(), "SA"),
		composerFunc(func(domain.CustomerProfile) (prompts.Composition, error) {
			panic("boom")
		}),
		nil,
	)

	res := svc.Personalize(context.Background(), []byte(`{}`))

	assert.True(t, res.Fallback)
	assert.Error(t, res.Err)
	assert.Equal(t, domain.FallbackResponse(), res.Response)
}

func TestPersonalize_RegisteredCallSuppliesCaller(t *testing.T) {
	svc := newTestService(t, stubCalls{
		info:  session.CallInfo{CallSID: "CA123", From: "+9665542744444"},
		found: true,
	})

	res := svc.Personalize(context.Background(), []byte(`{"call_sid": "CA123"}`))

	require.False(t, res.Fallback)
	assert.Equal(t, "سلمان", res.Response.DynamicVariables["customer_name"])
}

func TestPersonalize_RegistryIgnoredWhenCallerPresent(t *testing.T) {
	svc := newTestService(t, stubCalls{
		info:  session.CallInfo{CallSID: "CA123", From: "+9665542744444"},
		found: true,
	})

	res := svc.Personalize(context.Background(), []byte(`{"caller_id": "+201069440375", "call_sid": "CA123"}`))

	assert.Equal(t, "عمران", res.Response.DynamicVariables["customer_name"])
}

func TestPersonalize_RegistryErrorIsNotFatal(t *testing.T) {
	svc := newTestService(t, stubCalls{err: errors.New("redis down")})

	res := svc.Personalize(context.Background(), []byte(`{"call_sid": "CA123"}`))

	require.False(t, res.Fallback)
	assert.Equal(t, "زائر", res.Response.DynamicVariables["customer_name"])
}

func TestResponseWireFormat(t *testing.T) {
	svc := newTestService(t, nil)
	res := svc.Personalize(context.Background(), []byte(`{"system__caller_id": "+201069440375"}`))

	data, err := json.Marshal(res.Response)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	vars := wire["dynamic_variables"].(map[string]any)
	assert.Len(t, vars, 5)
	for _, k := range []string{"customer_name", "account_status", "last_interaction", "loyalty_points", "preferred_language"} {
		assert.Contains(t, vars, k)
	}

	override := wire["conversation_config_override"].(map[string]any)
	agent := override["agent"].(map[string]any)
	assert.Contains(t, agent["prompt"].(map[string]any), "prompt")
	assert.Contains(t, agent, "first_message")
	assert.Equal(t, "ar", agent["language"])
	assert.Equal(t, map[string]any{}, override["tts"])
}

func TestFallbackWireFormat(t *testing.T) {
	data, err := json.Marshal(domain.FallbackResponse())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"dynamic_variables": {"customer_name": "Guest", "account_status": "standard", "last_interaction": "N/A"},
		"conversation_config_override": {"agent": {"first_message": "Hello! Welcome to our customer service line. How can I assist you today?"}}
	}`, string(data))
}
