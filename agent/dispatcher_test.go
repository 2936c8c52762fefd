package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
)

func sampleCommands() []core.Command {
	return []core.Command{
		{Kind: core.CommandClickOption, Selector: `[data-question-id="q-1"]`, Payload: "Yes"},
		{Kind: core.CommandFillField, Selector: `textarea[name="extra"]`, Payload: "done"},
	}
}

func TestDispatchStructured(t *testing.T) {
	var got batch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, false)
	require.NoError(t, d.Dispatch(context.Background(), sampleCommands()))

	require.Len(t, got.Commands, 2)
	assert.Equal(t, core.CommandClickOption, got.Commands[0].Kind)
	assert.Equal(t, "Yes", got.Commands[0].Payload)
}

func TestDispatchLegacy(t *testing.T) {
	var got legacyBatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, true)
	require.NoError(t, d.Dispatch(context.Background(), sampleCommands()))

	require.Len(t, got.Commands, 2)
	assert.Equal(t, `CLICK_OPTION,[data-question-id="q-1"],Yes`, got.Commands[0])
	assert.Equal(t, `FILL_FIELD,textarea[name="extra"],done`, got.Commands[1])
}

func TestDispatchEmptyIsNoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, false)
	require.NoError(t, d.Dispatch(context.Background(), nil))
	assert.False(t, called)
}

func TestDispatchErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		d := NewDispatcher(srv.URL, time.Second, false)
		err := d.Dispatch(context.Background(), sampleCommands())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		d := NewDispatcher("http://127.0.0.1:1", 200*time.Millisecond, false)
		err := d.Dispatch(context.Background(), sampleCommands())
		require.Error(t, err)
	})
}
