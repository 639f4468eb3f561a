package handler

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
)

func newBarcodeRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewBarcodeHandler(&config.BarcodeConfig{
		AddMarker:      "BBUDDY-ADD",
		ConsumeMarker:  "BBUDDY-CONSUME",
		QuantityPrefix: "BBUDDY-Q-",
	}, zap.NewNop())

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestListBarcodes_ReturnsNamesAndURLs(t *testing.T) {
	router := newBarcodeRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/barcodes", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Barcodes []struct {
				Name    string `json:"name"`
				Content string `json:"content"`
				URL     string `json:"url"`
			} `json:"barcodes"`
			Count int `json:"count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success || body.Data.Count != 3 {
		t.Fatalf("Unexpected response: %+v", body)
	}

	byName := map[string]string{}
	for _, b := range body.Data.Barcodes {
		byName[b.Name] = b.URL
	}
	if byName["add"] != "/api/v1/barcodes/add" {
		t.Errorf("Unexpected add URL %q", byName["add"])
	}
	if byName["consume"] != "/api/v1/barcodes/consume" {
		t.Errorf("Unexpected consume URL %q", byName["consume"])
	}
	if _, ok := byName["quantity-{n}"]; !ok {
		t.Error("Expected the quantity convention to be listed")
	}
}

func TestRenderBarcode_AddMarkerIsPNG(t *testing.T) {
	router := newBarcodeRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/barcodes/add", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("Response is not a decodable PNG: %v", err)
	}
}

func TestRenderBarcode_QuantityMarker(t *testing.T) {
	router := newBarcodeRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/barcodes/quantity-5", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestRenderBarcode_UnknownNames(t *testing.T) {
	router := newBarcodeRouter(t)

	for _, name := range []string{"unknown", "quantity-abc", "quantity-0", "quantity--3"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/barcodes/"+name, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %q, got %d", name, w.Code)
		}
	}
}
