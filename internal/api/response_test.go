package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/darila/internal/model"
)

func TestCoreError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"rejection passes through", fmt.Errorf("%w: item 3 is reserved", model.ErrItemNotAvailable),
			http.StatusConflict, model.ReasonItemNotAvailable, "item 3 is reserved"},
		{"stale write", fmt.Errorf("%w: item 3 is given, expected reserved", model.ErrStaleState),
			http.StatusConflict, model.ReasonStaleState, "expected reserved"},
		{"persistence failure is hidden", fmt.Errorf("updating item status: %w: disk I/O error", model.ErrPersistence),
			http.StatusInternalServerError, model.ReasonPersistence, "internal error"},
		{"unclassified error is a fault", errors.New("sql: database is closed"),
			http.StatusInternalServerError, model.ReasonPersistence, "internal error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		coreError(rec, tt.err)

		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.name, tt.status, rec.Code)
		}
		var body errorBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decoding body: %v", tt.name, err)
		}
		if body.Code != tt.code {
			t.Errorf("%s: expected code %q, got %q", tt.name, tt.code, body.Code)
		}
		if !strings.Contains(body.Error, tt.message) {
			t.Errorf("%s: expected message containing %q, got %q", tt.name, tt.message, body.Error)
		}
		if tt.status == http.StatusInternalServerError && strings.Contains(body.Error, "sql") {
			t.Errorf("%s: fault details leaked: %q", tt.name, body.Error)
		}
	}
}
