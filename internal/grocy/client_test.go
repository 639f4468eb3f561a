package grocy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.GrocyConfig{
		URL:     server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestProductByBarcode_Found(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stock/products/by-barcode/4006381333931" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("GROCY-API-KEY") != "test-key" {
			t.Error("Missing API key header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"product": map[string]interface{}{"id": 42, "name": "Highlighter"},
		})
	})

	product, err := client.ProductByBarcode(context.Background(), "4006381333931")
	if err != nil {
		t.Fatalf("ProductByBarcode failed: %v", err)
	}
	if product.ID != 42 || product.Name != "Highlighter" {
		t.Errorf("Unexpected product %+v", product)
	}
}

func TestProductByBarcode_NotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ProductByBarcode(context.Background(), "000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateProduct(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/objects/products" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Milk" {
			t.Errorf("Unexpected body %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"created_object_id": "17"})
	})

	id, err := client.CreateProduct(context.Background(), "Milk", "Brand - 1l")
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if id != 17 {
		t.Errorf("Expected product ID 17, got %d", id)
	}
}

func TestAddStock(t *testing.T) {
	var got map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stock/products/42/add" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte("{}"))
	})

	if err := client.AddStock(context.Background(), 42, decimal.NewFromInt(3)); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if got["transaction_type"] != "purchase" {
		t.Errorf("Expected purchase transaction, got %v", got["transaction_type"])
	}
}

func TestConsumeStock_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.ConsumeStock(context.Background(), 42, decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("Expected error for server failure")
	}
}
