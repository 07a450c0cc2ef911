package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "abc")

	Error(c, http.StatusBadRequest, "HTTPException", "Empty file uploaded")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "HTTPException" || body["message"] != "Empty file uploaded" || body["request_id"] != "abc" {
		t.Fatalf("body = %v", body)
	}
	if !c.IsAborted() {
		t.Fatal("context not aborted")
	}
}

func TestRequestIDDefault(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := RequestID(c); got != "unknown" {
		t.Fatalf("RequestID() = %q", got)
	}
}
