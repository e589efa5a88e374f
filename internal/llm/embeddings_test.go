package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func vector(size int, fill float64) []float64 {
	v := make([]float64, size)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantErr    bool
		wantFirst  float32
	}{
		{
			name:  "returns one vector per input",
			texts: []string{"Content: pricing", "Content: faq"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("path = %s, want /v1/embeddings", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}
				var req EmbeddingsRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Model != "embed-model" || len(req.Input) != 2 {
					t.Errorf("request = %+v", req)
				}
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
					{Index: 0, Embedding: vector(4, 0.25)},
					{Index: 1, Embedding: vector(4, 0.5)},
				}})
			},
			wantFirst: 0.25,
		},
		{
			name:  "reorders by response index",
			texts: []string{"first", "second"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
					{Index: 1, Embedding: vector(4, 0.5)},
					{Index: 0, Embedding: vector(4, 0.75)},
				}})
			},
			wantFirst: 0.75,
		},
		{
			name:    "empty input",
			texts:   []string{},
			wantErr: true,
		},
		{
			name:  "count mismatch",
			texts: []string{"a", "b"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: vector(4, 0)}}})
			},
			wantErr: true,
		},
		{
			name:  "dimension mismatch",
			texts: []string{"a"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: vector(3, 0)}}})
			},
			wantErr: true,
		},
		{
			name:  "server error",
			texts: []string{"a"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.serverResp == nil {
					t.Error("server should not be called")
					return
				}
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "embed-model", 4)
			vecs, err := client.EmbedTexts(context.Background(), tt.texts)
			if tt.wantErr {
				if err == nil {
					t.Error("EmbedTexts() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("EmbedTexts() unexpected error: %v", err)
			}
			if len(vecs) != len(tt.texts) {
				t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(vecs), len(tt.texts))
			}
			if vecs[0][0] != tt.wantFirst {
				t.Errorf("first vector[0] = %v, want %v", vecs[0][0], tt.wantFirst)
			}
		})
	}
}

func TestEmbeddingsClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{{Embedding: []float64{1.5, -2.25}}}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "embed-model", 2)
	vec, err := client.Embed(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 1.5 || vec[1] != -2.25 {
		t.Errorf("Embed() = %v, want [1.5 -2.25]", vec)
	}
}
