package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/continuum-pay/continuum/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromOutcome(t *testing.T) {
	ok := FromOutcome(types.TerminalOutcome{
		AttemptID: "att_1",
		Payment:   &types.Payment{ID: "pay_1", Status: types.PaymentSettled},
	})
	assert.True(t, ok.Success)
	assert.Equal(t, "pay_1", ok.PaymentID)
	assert.Equal(t, "SETTLED", ok.Status)
	assert.False(t, ok.Timestamp.IsZero())

	failed := FromOutcome(types.TerminalOutcome{
		AttemptID: "att_2",
		Err:       types.NewFlowError(types.ErrCodePaymentFailed, "insufficient funds"),
	})
	assert.False(t, failed.Success)
	assert.Equal(t, "PAYMENT_FAILED", failed.Code)
	assert.Contains(t, failed.Message, "insufficient funds")
}

func TestDispatcher_UnknownType(t *testing.T) {
	_, err := NewDispatcher([]types.NotifierConfig{{Type: "pager"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notifier type")
}

func TestWebhookSink(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	err := sink.Send(Notification{AttemptID: "att_1", Success: true, PaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Equal(t, "att_1", got.AttemptID)
	assert.Equal(t, "pay_1", got.PaymentID)
}

func TestWebhookSink_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhookSink(srv.URL).Send(Notification{AttemptID: "att_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.jsonl")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Send(Notification{AttemptID: "att_1", Success: true}))
	require.NoError(t, sink.Send(Notification{AttemptID: "att_2", Success: false, Code: "PAYMENT_FAILED"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "att_1")
	assert.Contains(t, string(data), "PAYMENT_FAILED")
}

func TestDispatcher_SinkFailureDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	d, err := NewDispatcher([]types.NotifierConfig{{Type: "webhook", URL: srv.URL}}, nil)
	require.NoError(t, err)

	// Must not panic or return anything: delivery failures only get logged.
	d.Dispatch(Notification{AttemptID: "att_1"})
}
