package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

type fakeEmitterStore struct {
	inserted []domain.OutboxMessage
	err      error
}

func (s *fakeEmitterStore) InsertOutboxMessage(ctx context.Context, q store.Querier, tenantID, topic string, payload []byte) (*domain.OutboxMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	m := domain.OutboxMessage{
		ID:       "msg-1",
		TenantID: tenantID,
		Topic:    topic,
		Payload:  payload,
	}
	s.inserted = append(s.inserted, m)
	return &m, nil
}

func tenantCtx(tenantID string) context.Context {
	ctx := tenant.NewContext(context.Background())
	tenant.SetTenant(ctx, tenantID, "demo")
	return ctx
}

func TestEmit_WritesMessageForBoundTenant(t *testing.T) {
	fake := &fakeEmitterStore{}
	e := NewEmitter(fake)

	msg, err := e.Emit(tenantCtx("tenant-1"), nil, "risk.assessment.created", map[string]string{"assessment_id": "a-9"})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if msg.TenantID != "tenant-1" {
		t.Errorf("tenant id: got %q, want %q", msg.TenantID, "tenant-1")
	}
	if msg.Topic != "risk.assessment.created" {
		t.Errorf("topic: got %q", msg.Topic)
	}
	if string(fake.inserted[0].Payload) != `{"assessment_id":"a-9"}` {
		t.Errorf("payload: got %s", fake.inserted[0].Payload)
	}
	if msg.PublishedAt != nil {
		t.Error("a new message must start unpublished")
	}
}

func TestEmit_FailsClosedWithoutTenant(t *testing.T) {
	fake := &fakeEmitterStore{}
	e := NewEmitter(fake)

	_, err := e.Emit(context.Background(), nil, "risk.updated", nil)
	if !errors.Is(err, tenant.ErrMissingTenant) {
		t.Fatalf("error: got %v, want ErrMissingTenant", err)
	}
	if len(fake.inserted) != 0 {
		t.Error("nothing may be written without a tenant")
	}
}

func TestEmit_RequiresTopic(t *testing.T) {
	e := NewEmitter(&fakeEmitterStore{})

	if _, err := e.Emit(tenantCtx("tenant-1"), nil, "", nil); err == nil {
		t.Fatal("empty topic should be rejected")
	}
}

func TestEmit_PropagatesStoreError(t *testing.T) {
	wantErr := errors.New("connection refused")
	e := NewEmitter(&fakeEmitterStore{err: wantErr})

	if _, err := e.Emit(tenantCtx("tenant-1"), nil, "risk.updated", nil); !errors.Is(err, wantErr) {
		t.Fatalf("error: got %v, want %v", err, wantErr)
	}
}

func TestEmit_RejectsUnmarshalablePayload(t *testing.T) {
	e := NewEmitter(&fakeEmitterStore{})

	if _, err := e.Emit(tenantCtx("tenant-1"), nil, "risk.updated", func() {}); err == nil {
		t.Fatal("non-serializable payload should be rejected")
	}
}
