package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "deal-intake/internal/common/errors"
)

const testToken = "123456:ABCdefGHIjklMNOpqrSTUvwxYZ0123456789"

type recorded struct {
	path string
	body map[string]interface{}
}

func newTestServer(t *testing.T, reply func(method string) (int, string)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec := recorded{path: r.URL.Path}
		if len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.body))
		}
		calls = append(calls, rec)

		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status, body := reply(method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(testToken, srv.URL+"/", nil), &calls
}

func TestClient_SendMessage(t *testing.T) {
	client, calls := newTestServer(t, func(string) (int, string) {
		return 200, `{"ok":true,"result":{"message_id":77,"date":1700000000,"chat":{"id":501},"text":"hi"}}`
	})

	kb := Keyboard(Row(Button("✅ Approve All", "approve_all")))
	msg, err := client.SendMessage(context.Background(), 501, "hi", kb)
	require.NoError(t, err)
	assert.Equal(t, int64(77), msg.MessageID)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/bot"+testToken+"/sendMessage", call.path)
	assert.Equal(t, float64(501), call.body["chat_id"])
	assert.Equal(t, "hi", call.body["text"])
	markup := call.body["reply_markup"].(map[string]interface{})
	row := markup["inline_keyboard"].([]interface{})[0].([]interface{})
	assert.Equal(t, "approve_all", row[0].(map[string]interface{})["callback_data"])
}

func TestClient_Methods(t *testing.T) {
	client, calls := newTestServer(t, func(method string) (int, string) {
		switch method {
		case "getWebhookInfo":
			return 200, `{"ok":true,"result":{"url":"https://example.com/api/telegram","pending_update_count":3}}`
		case "getMe":
			return 200, `{"ok":true,"result":{"id":99,"is_bot":true,"username":"deal_bot"}}`
		}
		return 200, `{"ok":true,"result":true}`
	})
	ctx := context.Background()

	require.NoError(t, client.EditMessageText(ctx, 1, 2, "edited", nil))
	require.NoError(t, client.DeleteMessage(ctx, 1, 2))
	require.NoError(t, client.AnswerCallbackQuery(ctx, "cb-1", "done"))
	require.NoError(t, client.SetWebhook(ctx, "https://example.com/api/telegram", "s3cret", true))
	require.NoError(t, client.DeleteWebhook(ctx, false))

	info, err := client.GetWebhookInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.PendingUpdateCount)

	me, err := client.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "deal_bot", me.Username)

	got := *calls
	require.Len(t, got, 7)
	assert.Equal(t, "edited", got[0].body["text"])
	assert.Equal(t, "cb-1", got[2].body["callback_query_id"])
	assert.Equal(t, "s3cret", got[3].body["secret_token"])
	assert.Equal(t, true, got[3].body["drop_pending_updates"])
	assert.Len(t, got[3].body["allowed_updates"], len(AllowedUpdates))
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		retryable  bool
	}{
		{"bad request", 400, `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`, 400, false},
		{"rate limited", 429, `{"ok":false,"error_code":429,"description":"Too Many Requests"}`, 429, true},
		{"gateway html", 502, `<html>bad gateway</html>`, 502, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(string) (int, string) { return tt.status, tt.body })

			err := client.EditMessageText(context.Background(), 1, 2, "x", nil)
			require.Error(t, err)
			std := apperrors.Normalize(err)
			assert.Equal(t, apperrors.ErrCodeTelegramAPIFailed, std.Code)
			assert.Equal(t, tt.wantStatus, std.Metadata["status"])
			assert.Equal(t, tt.retryable, std.Retryable)
		})
	}
}

func TestValidateToken(t *testing.T) {
	assert.NoError(t, ValidateToken(testToken))
	assert.Error(t, ValidateToken(""))
	assert.Error(t, ValidateToken("not-a-token"))
	assert.Error(t, ValidateToken("123:short"))
}
