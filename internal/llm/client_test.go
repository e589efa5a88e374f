package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, check func(ChatRequest), status int, resp ChatResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s, want /v1/chat/completions", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}
		if status != http.StatusOK {
			http.Error(w, "upstream failure", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func reply(content string) ChatResponse {
	return ChatResponse{Choices: []ChatChoice{{Message: ChatChoiceMessage{Role: "assistant", Content: content}}}}
}

func TestClient_ChatWithMessages_Reply(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		resp      ChatResponse
		wantReply string
		wantErr   string
	}{
		{name: "reply", status: http.StatusOK, resp: reply("Hi!"), wantReply: "Hi!"},
		{name: "no choices", status: http.StatusOK, resp: ChatResponse{}, wantErr: "no choices"},
		{name: "bad status", status: http.StatusBadGateway, wantErr: "bad status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, func(req ChatRequest) {
				if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
					t.Errorf("messages = %+v", req.Messages)
				}
			}, tt.status, tt.resp)
			defer server.Close()

			got, err := NewClient(server.URL, "k", "m").ChatWithMessages(context.Background(),
				[]Message{{Role: "user", Content: "Hello"}}, ChatParams{})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ChatWithMessages() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChatWithMessages() error = %v", err)
			}
			if got != tt.wantReply {
				t.Errorf("ChatWithMessages() = %q, want %q", got, tt.wantReply)
			}
		})
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	server := chatServer(t, func(req ChatRequest) {
		if req.Model != "override" {
			t.Errorf("model = %q, want override", req.Model)
		}
		if req.MaxTokens != 256 {
			t.Errorf("max_tokens = %d, want 256", req.MaxTokens)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
	}, http.StatusOK, reply("Answer"))
	defer server.Close()

	client := NewClient(server.URL, "k", "default")
	got, err := client.ChatWithMessages(context.Background(), []Message{
		{Role: "system", Content: "Use the context."},
		{Role: "user", Content: "What does it cost?"},
	}, ChatParams{Model: "override", MaxTokens: 256, Temperature: 0.3})
	if err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if got != "Answer" {
		t.Errorf("ChatWithMessages() = %q", got)
	}
}

func TestClient_ChatWithMessages_DefaultModel(t *testing.T) {
	server := chatServer(t, func(req ChatRequest) {
		if req.Model != "default" {
			t.Errorf("model = %q, want default", req.Model)
		}
	}, http.StatusOK, reply("ok"))
	defer server.Close()

	if _, err := NewClient(server.URL, "k", "default").ChatWithMessages(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, ChatParams{}); err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
}

func TestClient_ChatWithMessages_Empty(t *testing.T) {
	if _, err := NewClient("http://unused", "k", "m").ChatWithMessages(context.Background(), nil, ChatParams{}); err == nil {
		t.Error("expected error for empty conversation")
	}
}
