package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yusufturaev707/faceid/internal/error/code"
)

func record(t *testing.T, write func(*gin.Context)) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	write(c)

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestParamError(t *testing.T) {
	status, body := record(t, func(c *gin.Context) { ParamError(c) })
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
	if body.Code != code.ErrValidation {
		t.Errorf("code = %d, want %d", body.Code, code.ErrValidation)
	}
}

func TestNotFound(t *testing.T) {
	status, body := record(t, func(c *gin.Context) { NotFound(c) })
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", status, http.StatusNotFound)
	}
	if body.Code != code.ErrRecordNotFound {
		t.Errorf("code = %d, want %d", body.Code, code.ErrRecordNotFound)
	}
}

func TestFailUsesCodeStatusMapping(t *testing.T) {
	status, body := record(t, func(c *gin.Context) { Fail(c, code.ErrDeviceOffline, nil) })
	if status != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", status, http.StatusBadGateway)
	}
	if body.Message != code.GetMessage(code.ErrDeviceOffline) {
		t.Errorf("message = %q", body.Message)
	}
}
