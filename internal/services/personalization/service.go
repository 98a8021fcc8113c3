package personalization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ClareAI/astra-personalization-bridge/internal/core/session"
	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/internal/profile"
	"github.com/ClareAI/astra-personalization-bridge/internal/prompts"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrMalformedBody   = errors.New("malformed personalization request body")
	ErrUnexpectedShape = errors.New("personalization request is not a JSON object")
	ErrComposition     = errors.New("failed to compose agent override")
)

// PromptComposer renders the agent override for a profile.
type PromptComposer interface {
	Compose(p domain.CustomerProfile) (prompts.Composition, error)
}

// CallLookup finds calls registered by the inbound call webhook.
type CallLookup interface {
	Lookup(ctx context.Context, callSID string) (session.CallInfo, bool, error)
}

// Result is the outcome of one personalization request. Response is always safe to
// send; Fallback is set when it is the fixed fallback, with Err holding the cause.
type Result struct {
	Response domain.PersonalizationResponse
	Fallback bool
	Err      error
}

// Service runs extraction, resolution and composition behind a single fault boundary.
type Service struct {
	resolver profile.Resolver
	composer PromptComposer
	calls    CallLookup
}

// NewService builds the pipeline. calls may be nil.
func NewService(resolver profile.Resolver, composer PromptComposer, calls CallLookup) *Service {
	return &Service{
		resolver: resolver,
		composer: composer,
		calls:    calls,
	}
}

// Personalize never fails: decoding, shape and composition errors as well as panics
// yield domain.FallbackResponse.
func (s *Service) Personalize(ctx context.Context, body []byte) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = s.fallback(ctx, fmt.Errorf("personalization panic: %v", r))
		}
	}()

	payload, err := decodePayload(body)
	if err != nil {
		return s.fallback(ctx, err)
	}

	cc := s.withRegisteredCaller(ctx, ExtractCallContext(ctx, payload))
	logger.Info(ctx, "processing personalization",
		zap.String("caller_id", cc.CallerID),
		zap.String("agent_id", cc.AgentID),
		zap.String("call_sid", cc.CallSID),
	)

	p := s.resolver.Resolve(ctx, cc.CallerID)
	composition, err := s.composer.Compose(p)
	if err != nil {
		return s.fallback(ctx, fmt.Errorf("%w: %v", ErrComposition, err))
	}

	resp := BuildResponse(p, composition)
	logger.Info(ctx, "sending personalization response", zap.String("response", encodeForLog(resp)))
	return Result{Response: resp}
}

// BuildResponse packages the profile and its composition into the wire contract.
func BuildResponse(p domain.CustomerProfile, c prompts.Composition) domain.PersonalizationResponse {
	return domain.PersonalizationResponse{
		DynamicVariables: p.DynamicVariables(),
		ConversationConfigOverride: domain.ConversationConfigOverride{
			Agent: domain.AgentOverride{
				Prompt:       &domain.PromptOverride{Prompt: c.PromptText},
				FirstMessage: c.FirstMessage,
				Language:     c.Language,
			},
			TTS: &domain.TTSOverride{},
		},
	}
}

func (s *Service) fallback(ctx context.Context, err error) Result {
	logger.Error(ctx, "error processing personalization webhook, sending fallback", zap.Error(err))
	return Result{
		Response: domain.FallbackResponse(),
		Fallback: true,
		Err:      err,
	}
}

// withRegisteredCaller fills a missing caller id from the call registry.
func (s *Service) withRegisteredCaller(ctx context.Context, cc domain.CallContext) domain.CallContext {
	if s.calls == nil || cc.HasCaller() || !cc.HasCallSID() {
		return cc
	}

	info, found, err := s.calls.Lookup(ctx, cc.CallSID)
	if err != nil {
		logger.Warn(ctx, "call registry lookup failed", zap.String("call_sid", cc.CallSID), zap.Error(err))
		return cc
	}
	if !found || info.From == "" {
		return cc
	}

	logger.Info(ctx, "caller id taken from registered call",
		zap.String("call_sid", cc.CallSID),
		zap.String("caller_id", info.From))
	cc.CallerID = info.From
	return cc
}

func decodePayload(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedBody)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}

	payload, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrUnexpectedShape, v)
	}
	return payload, nil
}

func encodeForLog(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
