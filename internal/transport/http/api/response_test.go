package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestAcceptedEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Accepted(rec, map[string]string{"status": "queued"}, "req-1")

	if rec.Code != 202 {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var envelope Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success || envelope.Error != nil {
		t.Fatalf("expected success envelope, got %+v", envelope)
	}
	if envelope.RequestID != "req-1" {
		t.Fatalf("expected request id req-1, got %q", envelope.RequestID)
	}
}

func TestBadRequestEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "missing field", "req-2")

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Success || envelope.Error == nil {
		t.Fatalf("expected failure envelope, got %+v", envelope)
	}
	if envelope.Error.Code != "invalid_payload" || envelope.Error.Message != "missing field" {
		t.Fatalf("unexpected error %+v", envelope.Error)
	}
}
