package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL, "test-token")
	cfg.RequestTimeout = 2 * time.Second
	cfg.PollTimeout = time.Second

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return client
}

func TestSendText(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(5), payload["chat_id"])
		assert.Equal(t, "hello", payload["text"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		assert.Contains(t, payload, "reply_markup")

		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 99}}`)
	})

	keyboard := Keyboard{Row(Button{Text: "Solve", Data: "solve"})}
	messageID, err := client.SendText(context.Background(), 5, "hello", keyboard)
	require.NoError(t, err)
	assert.Equal(t, int64(99), messageID)
}

func TestSendTextGatewayError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok": false, "description": "Bad Request: chat not found"}`)
	})

	_, err := client.SendText(context.Background(), 5, "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestEditText(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/editMessageText", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(7), payload["message_id"])

		fmt.Fprint(w, `{"ok": true, "result": true}`)
	})

	err := client.EditText(context.Background(), 5, 7, "updated", nil)
	require.NoError(t, err)
}

func TestGetUpdates(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(100), payload["offset"])
		assert.Equal(t, float64(1), payload["timeout"])

		fmt.Fprint(w, `{"ok": true, "result": [
			{"update_id": 100, "message": {"message_id": 1, "chat": {"id": 5}, "from": {"id": 5}, "text": "/start"}},
			{"update_id": 101, "callback_query": {"id": "cb1", "from": {"id": 5}, "data": "solve"}}
		]}`)
	})

	updates, err := client.GetUpdates(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(100), updates[0].UpdateID)
	assert.Equal(t, "/start", updates[0].Message.Text)
	require.NotNil(t, updates[1].CallbackQuery)
	assert.Equal(t, "solve", updates[1].CallbackQuery.Data)
}

func TestEditMedia(t *testing.T) {
	photo := []byte{0x89, 'P', 'N', 'G'}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/editMessageMedia", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "5", r.FormValue("chat_id"))
		assert.Equal(t, "7", r.FormValue("message_id"))
		assert.Contains(t, r.FormValue("media"), `"attach://chart"`)
		assert.Contains(t, r.FormValue("media"), "caption text")

		file, header, err := r.FormFile("chart")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "chart.png", header.Filename)

		fmt.Fprint(w, `{"ok": true, "result": true}`)
	})

	err := client.EditMedia(context.Background(), 5, 7, photo, "caption text", nil)
	require.NoError(t, err)
}

func TestEditMediaTimeout(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL, "test-token")
	cfg.MediaTimeout = 50 * time.Millisecond

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)

	err = client.EditMedia(context.Background(), 5, 7, []byte("png"), "caption", nil)
	assert.ErrorIs(t, err, ErrDeliveryTimeout)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("request never reached the server")
	}
}

func TestAnswerCallbackAndDelete(t *testing.T) {
	var paths []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, strings.TrimPrefix(r.URL.Path, "/bottest-token/"))
		fmt.Fprint(w, `{"ok": true, "result": true}`)
	})

	require.NoError(t, client.AnswerCallback(context.Background(), "cb1"))
	require.NoError(t, client.DeleteMessage(context.Background(), 5, 7))
	assert.Equal(t, []string{"answerCallbackQuery", "deleteMessage"}, paths)
}
