package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, tokens, zerolog.Nop())
}

func TestBearerInjection(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"e1","status":"available"}`))
	}), staticTokens("tok-42"))

	if _, err := c.EmployeeStatus(context.Background()); err != nil {
		t.Fatalf("EmployeeStatus() failed: %v", err)
	}
	if gotAuth != "Bearer tok-42" {
		t.Errorf("Expected 'Bearer tok-42', got %q", gotAuth)
	}
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"count":3}`))
	}), staticTokens(""))

	count, err := c.QueueCount(context.Background())
	if err != nil {
		t.Fatalf("QueueCount() failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Expected no Authorization header, got %q", gotAuth)
	}
	if count.Count != 3 {
		t.Errorf("Expected count 3, got %d", count.Count)
	}
}

func TestCallNext_EmptyQueueNormalization(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"No applicants assigned to you in the queue"}`, http.StatusNotFound)
	}), staticTokens("tok"))

	result, err := c.CallNext(context.Background())
	if err != nil {
		t.Fatalf("Expected 404 to resolve, got error: %v", err)
	}
	if result.Success {
		t.Error("Expected Success=false")
	}
	if result.Status != "empty_queue" {
		t.Errorf("Expected status 'empty_queue', got %q", result.Status)
	}
}

func TestCallNext_OtherErrorsPropagate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"You must be available to call next applicant"}`, http.StatusBadRequest)
	}), staticTokens("tok"))

	_, err := c.CallNext(context.Background())
	if err == nil {
		t.Fatal("Expected error for 400")
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Errorf("Expected status 400 error, got %v", err)
	}
}

func TestCallNext_SpeechPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"queue_number": 17,
			"full_name": "Aliya T",
			"employee_desk": "4",
			"speech": {"success": true, "audio_base64": "bXAz", "text": "Number 17 to desk 4", "language": "ru"}
		}`))
	}), staticTokens("tok"))

	result, err := c.CallNext(context.Background())
	if err != nil {
		t.Fatalf("CallNext() failed: %v", err)
	}
	if !result.Success || result.QueueNumber != 17 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Speech == nil || !result.Speech.Success || result.Speech.AudioBase64 != "bXAz" {
		t.Errorf("Unexpected speech payload: %+v", result.Speech)
	}
}

func TestValidationDetailJoin(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "string detail",
			body:     `{"detail":"Queue entry not found"}`,
			expected: "Queue entry not found",
		},
		{
			name:     "list detail",
			body:     `{"detail":[{"msg":"phone required"},{"msg":"name too short"}]}`,
			expected: "phone required; name too short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, http.StatusUnprocessableEntity)
			}), nil)

			err := c.DeleteEntry(context.Background(), "q1")
			if err == nil {
				t.Fatal("Expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if apiErr.Detail != tt.expected {
				t.Errorf("Expected detail %q, got %q", tt.expected, apiErr.Detail)
			}
		})
	}
}

func TestLogin_FormEncoded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Expected form content type, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if r.PostForm.Get("username") != "a@b.c" || r.PostForm.Get("password") != "secret" {
			t.Errorf("Unexpected form: %v", r.PostForm)
		}
		w.Write([]byte(`{"access_token":"jwt-1","token_type":"bearer"}`))
	}), nil)

	token, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if token.AccessToken != "jwt-1" {
		t.Errorf("Expected token 'jwt-1', got %q", token.AccessToken)
	}
}

func TestExportQueueExcel_Binary(t *testing.T) {
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0xff} // xlsx zip magic + junk
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(payload)
	}), staticTokens("tok"))

	data, err := c.ExportQueueExcel(context.Background())
	if err != nil {
		t.Fatalf("ExportQueueExcel() failed: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("Binary payload mangled: got %v", data)
	}
}

func TestQueueParams(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}), staticTokens("tok"))

	_, err := c.AdmissionQueue(context.Background(), QueueParams{Status: "waiting", FullName: "Aliya"})
	if err != nil {
		t.Fatalf("AdmissionQueue() failed: %v", err)
	}
	if gotQuery != "full_name=Aliya&status=waiting" {
		t.Errorf("Unexpected query: %q", gotQuery)
	}
}
