package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantHeader  string
		wantHandler bool
	}{
		{"wildcard echoes origin", []string{"*"}, "http://localhost:5173", http.MethodGet, "http://localhost:5173", true},
		{"explicit origin allowed", []string{"https://bot.example"}, "https://bot.example", http.MethodGet, "https://bot.example", true},
		{"other origin gets no header", []string{"https://bot.example"}, "https://evil.example", http.MethodGet, "", true},
		{"preflight short-circuits", []string{"*"}, "http://localhost:5173", http.MethodOptions, "http://localhost:5173", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(tt.method, "/ws/console", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
			if called != tt.wantHandler {
				t.Errorf("next handler called = %v, want %v", called, tt.wantHandler)
			}
		})
	}
}
