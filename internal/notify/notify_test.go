package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go-pos-orders/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingGateway struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (g *recordingGateway) Send(_ context.Context, to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, Message{To: to, Body: body})
	return g.err
}

func TestDispatcher_SendsAndCounts(t *testing.T) {
	gw := &recordingGateway{}
	m := metrics.New("test", prometheus.NewRegistry())
	d := NewDispatcher(gw, time.Second, zap.NewNop(), m)

	d.Dispatch(Message{OrderID: "o1", Kind: "order_created", To: "5550001", Body: "hola"})
	d.Wait()

	require.Len(t, gw.sent, 1)
	assert.Equal(t, "5550001", gw.sent[0].To)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("sent")))
}

func TestDispatcher_FailureIsCountedNotRetried(t *testing.T) {
	gw := &recordingGateway{err: errors.New("boom")}
	m := metrics.New("test", prometheus.NewRegistry())
	d := NewDispatcher(gw, time.Second, zap.NewNop(), m)

	d.Dispatch(Message{OrderID: "o1", To: "5550001", Body: "hola"})
	d.Wait()

	assert.Len(t, gw.sent, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("failed")))
}

func TestDispatcher_SkipsEmptyAddress(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw, time.Second, zap.NewNop(), nil)

	d.Dispatch(Message{OrderID: "o1", Body: "hola"})
	d.Wait()

	assert.Empty(t, gw.sent)
}

func TestWebhookGateway(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.To == "reject" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewWebhookGateway(srv.URL, 2*time.Second)

	require.NoError(t, gw.Send(context.Background(), "5550001", "listo"))
	assert.Equal(t, "5550001", got.To)
	assert.Equal(t, "listo", got.Body)

	err := gw.Send(context.Background(), "reject", "x")
	assert.ErrorIs(t, err, ErrRejected)
}
