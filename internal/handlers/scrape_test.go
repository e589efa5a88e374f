package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"learner-feature/internal/apperr"
	"learner-feature/internal/content"
	"learner-feature/internal/fetcher"
	"learner-feature/internal/handlers/mocks"
)

func TestScrapeHandler_ServeHTTP(t *testing.T) {
	doc := &content.Document{
		URL:        "https://acme.test",
		Title:      "Acme",
		Headings:   []content.Heading{{Level: 1, Text: "Pricing"}},
		Paragraphs: []string{"Plans start at ten dollars a month."},
	}
	includeLinks := false

	tests := []struct {
		name       string
		body       any
		mockSetup  func(m *mocks.MockScraper)
		wantStatus int
	}{
		{
			name: "structured document",
			body: ScrapeRequest{URL: "https://acme.test", Options: FetchOptions{IncludeLinks: &includeLinks, WaitSelector: "#main"}},
			mockSetup: func(m *mocks.MockScraper) {
				m.EXPECT().
					Fetch(gomock.Any(), "https://acme.test", fetcher.Options{ExcludeLinks: true, WaitSelector: "#main"}).
					Return(doc, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid url",
			body: ScrapeRequest{URL: "ftp://acme.test"},
			mockSetup: func(m *mocks.MockScraper) {
				m.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, apperr.NewValidationError("url", "must be an absolute http or https URL"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "upstream failure",
			body: ScrapeRequest{URL: "https://acme.test"},
			mockSetup: func(m *mocks.MockScraper) {
				m.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("failed to fetch https://acme.test: bad status 503"))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			scraper := mocks.NewMockScraper(ctrl)
			tt.mockSetup(scraper)

			w := httptest.NewRecorder()
			NewScrapeHandler(scraper).ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/api/v1/scrape", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got content.Document
			if err := json.Unmarshal(decodeEnvelope(t, w).Data, &got); err != nil {
				t.Fatalf("failed to decode document: %v", err)
			}
			if got.Title != "Acme" || len(got.Headings) != 1 {
				t.Errorf("document = %+v", got)
			}
		})
	}
}
