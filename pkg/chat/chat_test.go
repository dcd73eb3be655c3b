package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Post(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		fmt.Fprint(w, `{"reply":"Hola"}`)
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, "k1", ModePost).Send(context.Background(), "  estado 101 ", "tok")
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "Hola"}, reply)
	assert.Equal(t, request{Text: "estado 101", IDToken: "tok", AppKey: "k1"}, got)
}

func TestSend_JSONP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		var body request
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("body")), &body))
		assert.Equal(t, "hola", body.Text)
		cb := r.URL.Query().Get("callback")
		assert.NotEmpty(t, cb)
		fmt.Fprintf(w, "/**/%s({\"reply\":\"Nro: 101\\nEstado: Abierto\"});", cb)
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL+"/exec?x=1", "k", ModeJSONP).Send(context.Background(), "hola", "")
	require.NoError(t, err)
	assert.Equal(t, "Nro: 101\nEstado: Abierto", reply.Text)
	assert.Equal(t, []DetailLine{{Label: "Nro", Value: "101"}, {Label: "Estado", Value: "Abierto"}}, reply.Details)
}

func TestSend_ErrorAndEmptyReplies(t *testing.T) {
	tests := []struct {
		body string
		want Reply
	}{
		{`{"error":"APP_KEY inválida"}`, Reply{Text: "APP_KEY inválida", Error: true}},
		{`{}`, Reply{Text: NoReply}},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, tt.body)
		}))
		reply, err := NewClient(srv.URL, "", ModePost).Send(context.Background(), "x", "")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, tt.want, reply)
	}
}

func TestSend_Failures(t *testing.T) {
	_, err := NewClient("", "", ModePost).Send(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrNoEndpoint)

	_, err = NewClient("http://x", "", ModePost).Send(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrEmptyText)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	_, err = NewClient(srv.URL, "", ModePost).Send(context.Background(), "x", "")
	assert.Error(t, err)
	srv.Close()

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>")
	}))
	_, err = NewClient(srv.URL, "", ModePost).Send(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrBadReply)
	srv.Close()

	_, err = NewClient(srv.URL, "", ModePost).Send(context.Background(), "x", "")
	assert.Error(t, err)
}

func TestFormatReply(t *testing.T) {
	lines, ok := FormatReply("nro: 101\n\n  Asunto: Error: timeout \nDescripción:\ntexto suelto")
	require.True(t, ok)
	assert.Equal(t, []DetailLine{
		{Label: "nro", Value: "101"},
		{Label: "Asunto", Value: "Error: timeout"},
		{Text: "Descripción:"},
		{Text: "texto suelto"},
	}, lines)

	_, ok = FormatReply("Hola, ¿en qué ayudo?")
	assert.False(t, ok)
}
