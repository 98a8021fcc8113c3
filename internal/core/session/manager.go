package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
	"github.com/ClareAI/astra-personalization-bridge/pkg/logger"
	"github.com/ClareAI/astra-personalization-bridge/pkg/redis"
	"go.uber.org/zap"
)

const SessionTTL = 1 * time.Hour

// CallInfo is what the bridge remembers about a call it connected.
type CallInfo struct {
	CallSID   string    `json:"callSid"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	PodID     string    `json:"podId"`
	StartTime time.Time `json:"startTime"`
}

// Manager records inbound calls so later webhooks for the same call can be correlated.
type Manager struct {
	redisSvc redis.RedisServiceInterface
	podID    string
}

func NewManager(redisSvc redis.RedisServiceInterface, podID string) *Manager {
	return &Manager{
		redisSvc: redisSvc,
		podID:    podID,
	}
}

// Register stores the call under its CallSid.
func (m *Manager) Register(ctx context.Context, call domain.InboundCall) error {
	if call.CallSID == "" || call.CallSID == domain.UnknownValue {
		return fmt.Errorf("cannot register call without a CallSid")
	}

	info := CallInfo{
		CallSID:   call.CallSID,
		From:      call.From,
		To:        call.To,
		PodID:     m.podID,
		StartTime: time.Now().UTC(),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal call info: %w", err)
	}

	key := m.redisSvc.GenerateKey(redis.CALL_SESSION, call.CallSID)
	if err := m.redisSvc.SetValue(ctx, key, string(data), SessionTTL); err != nil {
		return fmt.Errorf("failed to register call: %w", err)
	}

	logger.Info(ctx, "call registered", zap.String("call_sid", call.CallSID), zap.String("pod_id", m.podID))
	return nil
}

// Lookup returns the registered call for callSID. found is false when the call is unknown.
func (m *Manager) Lookup(ctx context.Context, callSID string) (info CallInfo, found bool, err error) {
	key := m.redisSvc.GenerateKey(redis.CALL_SESSION, callSID)
	raw, err := m.redisSvc.GetValue(ctx, key)
	if err != nil {
		if redis.IsNotExist(err) {
			return CallInfo{}, false, nil
		}
		return CallInfo{}, false, fmt.Errorf("failed to read call info: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return CallInfo{}, false, fmt.Errorf("failed to unmarshal call info: %w", err)
	}
	return info, true, nil
}

// Unregister forgets the call.
func (m *Manager) Unregister(ctx context.Context, callSID string) error {
	return m.redisSvc.DelValue(ctx, m.redisSvc.GenerateKey(redis.CALL_SESSION, callSID))
}
