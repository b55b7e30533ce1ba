package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitmentworks/fitment-engine/engine/domain"
)

type stubProcessor struct {
	res      Result
	err      error
	called   int
	lastSig  string
	lastBody string
}

func (s *stubProcessor) Process(_ context.Context, body []byte, signature string) (Result, error) {
	s.called++
	s.lastSig = signature
	s.lastBody = string(body)
	return s.res, s.err
}

func newRequest(body, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/products/create", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func serve(t *testing.T, proc *stubProcessor, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewHandler(proc, testLogger()).ServeHTTP(rec, req)
	return rec
}

func TestHandler_Success(t *testing.T) {
	proc := &stubProcessor{res: Result{ProductID: "123", Tags: []string{"bmw", "bmw e90", "e90"}}}
	req := newRequest(`{"id":123,"title":"x"}`, "application/json")
	req.Header.Set(SignatureHeader, "sig-value")

	rec := serve(t, proc, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if proc.lastSig != "sig-value" {
		t.Fatalf("signature not forwarded: %q", proc.lastSig)
	}
	var resp struct {
		Status string   `json:"status"`
		ID     string   `json:"id"`
		Tags   []string `json:"tags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" || resp.ID != "123" || len(resp.Tags) != 3 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandler_EmptyTagSetSerializesAsList(t *testing.T) {
	proc := &stubProcessor{res: Result{ProductID: "7"}}
	rec := serve(t, proc, newRequest(`{"id":7,"title":"Wool Jacket Size L"}`, "application/json"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"tags":[]`) {
		t.Fatalf("body = %s, want empty tag list, not null", body)
	}
}

func TestHandler_ContentTypeGate(t *testing.T) {
	proc := &stubProcessor{}
	rec := serve(t, proc, newRequest(`{}`, "text/plain"))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
	if proc.called != 0 {
		t.Fatal("processor must not run for wrong content type")
	}

	// Parameters on the media type are fine.
	rec = serve(t, &stubProcessor{}, newRequest(`{}`, "application/json; charset=utf-8"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for json with charset", rec.Code)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrAuthentication, http.StatusUnauthorized},
		{domain.ErrMalformedPayload, http.StatusBadRequest},
		{domain.ErrDispatchFailed, http.StatusBadGateway},
		{&domain.DispatchError{Op: "apply_tags", Err: domain.ErrDispatchFailed}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := serve(t, &stubProcessor{err: tc.err}, newRequest(`{}`, "application/json"))
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestHandler_MethodGate(t *testing.T) {
	proc := &stubProcessor{}
	req := httptest.NewRequest(http.MethodGet, "/webhook/products/create", nil)
	rec := serve(t, proc, req)
	if rec.Code != http.StatusMethodNotAllowed || proc.called != 0 {
		t.Fatalf("status = %d, called = %d", rec.Code, proc.called)
	}
}
