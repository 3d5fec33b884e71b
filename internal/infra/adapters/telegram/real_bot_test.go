//go:build !integration

package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakeBotAPI answers getMe and sendMessage like the Bot API does.
func fakeBotAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Daleel","username":"daleel_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			mu.Lock()
			texts = append(texts, r.FormValue("chat_id")+":"+r.FormValue("text"))
			mu.Unlock()
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &texts
}

func TestBotSender_SendMessage(t *testing.T) {
	srv, texts := fakeBotAPI(t)

	sender, err := NewBotSenderWithEndpoint("123:abc", srv.URL+"/bot%s/%s", 100, newTestLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sender.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(*texts) != 1 || (*texts)[0] != "42:hello" {
		t.Errorf("unexpected sent messages %v", *texts)
	}
}

func TestBotSender_RespectsCancelledContext(t *testing.T) {
	srv, texts := fakeBotAPI(t)
	sender, err := NewBotSenderWithEndpoint("123:abc", srv.URL+"/bot%s/%s", 0.001, newTestLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// The first token is free; the second would wait far longer than the context allows.
	_ = sender.SendMessage(context.Background(), 42, "first")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.SendMessage(ctx, 42, "second"); err == nil {
		t.Error("expected an error for a cancelled context")
	}
	if len(*texts) != 1 {
		t.Errorf("expected only the first message to be sent, got %v", *texts)
	}
}

func TestNewBotSender_RejectsEmptyToken(t *testing.T) {
	if _, err := NewBotSender("", 10, newTestLogger()); err == nil {
		t.Error("expected an error for an empty token")
	}
}
