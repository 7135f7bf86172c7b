package logging

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestOperationErrorUnwrapsToStatus(t *testing.T) {
	cause := status.Error(codes.Unauthenticated, "bad key")
	err := NewOperationError("visionclient.detect_web", "req-1", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if got := StatusCode(err); got != codes.Unauthenticated {
		t.Fatalf("expected %s, got %s", codes.Unauthenticated, got)
	}
	want := "visionclient.detect_web [req-1]: rpc error: code = Unauthenticated desc = bad key"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestStatusCodeWithoutStatus(t *testing.T) {
	if got := StatusCode(nil); got != codes.OK {
		t.Fatalf("expected OK for nil, got %s", got)
	}
	if got := StatusCode(fmt.Errorf("read: %w", errors.New("eof"))); got != codes.Unknown {
		t.Fatalf("expected Unknown, got %s", got)
	}
}

func TestNewOperationErrorNil(t *testing.T) {
	if err := NewOperationError("op", "", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestOperationErrorWithoutRequestID(t *testing.T) {
	err := NewOperationError("visionclient.dial", "", errors.New("no credentials"))

	if got, want := err.Error(), "visionclient.dial: no credentials"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGinLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) {
		c.Header(RequestIDHeader, "req-ok")
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["request_id"] != "req-ok" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level for 500, got %s", entries[1].Level)
	}
}
