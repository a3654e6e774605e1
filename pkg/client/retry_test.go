package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/thema-client/internal/testutil"
	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
)

var norwayNO2 = query.Template{
	"scenario": query.Scalar("Base"),
	"region":   query.Scalar("Nordics"),
	"country":  query.Scalar("Norway"),
	"zone":     query.Scalar("NO2"),
}

func TestWithReauth_LogsInAgainAfter401(t *testing.T) {
	mock := newMarketMock(t)
	mock.SetData("/hourlyData", priceRows)
	c := newTestClient(t, mock)
	ctx := context.Background()

	if _, err := c.MasterData(ctx, dataset.Hourly); err != nil {
		t.Fatalf("MasterData() error = %v", err)
	}

	// The service drops the token before its validity window ends.
	mock.RevokeTokens()

	res, err := c.Fetch(ctx, dataset.Hourly, norwayNO2)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Table.Len() != 1 {
		t.Errorf("rows = %d, want 1", res.Table.Len())
	}
	if got := mock.AuthCount(); got != 2 {
		t.Errorf("AuthCount = %d, want 2", got)
	}
	// One rejected call and its retry.
	if got := mock.PathCount("/hourlyData"); got != 2 {
		t.Errorf("data calls = %d, want 2", got)
	}
	if got := mock.LastRequestHeader.Get("Authorization"); got != "Bearer jwt-2" {
		t.Errorf("Authorization = %q, want the new token", got)
	}
}

func TestWithReauth_SecondRejectionFails(t *testing.T) {
	mock := newMarketMock(t)
	var dataCalls atomic.Int32
	mock.SetHandler("/hourlyData", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Unauthorized"}`))
	})
	c := newTestClient(t, mock)

	_, err := c.Fetch(context.Background(), dataset.Hourly, norwayNO2)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Fetch() error = %v, want ErrUnauthorized", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Operation != "Hourly data" {
		t.Errorf("error = %v, want an APIError for Hourly data", err)
	}
	if got := dataCalls.Load(); got != maxAuthAttempts {
		t.Errorf("data calls = %d, want %d", got, maxAuthAttempts)
	}
	if got := mock.AuthCount(); got != 2 {
		t.Errorf("AuthCount = %d, want 2", got)
	}
}

func TestWithReauth_UnauthorizedAbortsCombinatorialRun(t *testing.T) {
	mock := newMarketMock(t)
	var dataCalls atomic.Int32
	mock.SetHandler("/hourlyData", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, mock, func(cfg *Config) { cfg.MaxConcurrency = 1 })

	tmpl := query.Template{
		"scenario": query.Set("Base", "Technotopia"),
		"region":   query.Scalar("Nordics"),
		"country":  query.Set("Norway", "Sweden"),
		"zone":     query.Set("NO1", "NO2", "SE1", "SE2"),
	}

	_, err := c.Fetch(context.Background(), dataset.Hourly, tmpl)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Fetch() error = %v, want ErrUnauthorized", err)
	}
	// 8 valid combinations, but the first rejected instance stops the run.
	if got := dataCalls.Load(); got >= 8*maxAuthAttempts {
		t.Errorf("data calls = %d, want the run to stop early", got)
	}
	if !c.Rejected().IsEmpty() {
		t.Error("aborted run should not record rejections")
	}
}

func TestWithReauth_OtherStatusesAreNotRetried(t *testing.T) {
	mock := newMarketMock(t)
	var dataCalls atomic.Int32
	mock.SetHandler("/hourlyData", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, mock)

	_, err := c.Fetch(context.Background(), dataset.Hourly, norwayNO2)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorClass != ErrorClassServer {
		t.Fatalf("Fetch() error = %v, want a server APIError", err)
	}
	if got := dataCalls.Load(); got != 1 {
		t.Errorf("data calls = %d, want 1", got)
	}
	if got := mock.AuthCount(); got != 1 {
		t.Errorf("AuthCount = %d, want 1", got)
	}
}

func TestWithReauth_SharedLoginAcrossWorkers(t *testing.T) {
	mock := newMarketMock(t)
	mock.SetData("/hourlyData", func(req map[string]string) (int, string) {
		return http.StatusOK, testutil.DataBody(map[string]any{"value": 1})
	})
	c := newTestClient(t, mock, func(cfg *Config) { cfg.MaxConcurrency = 8 })

	tmpl := query.Template{
		"scenario": query.Set("Base", "Technotopia"),
		"region":   query.Scalar("Nordics"),
		"country":  query.Set("Norway", "Sweden"),
		"zone":     query.Set("NO1", "NO2", "SE1", "SE2"),
	}

	res, err := c.Fetch(context.Background(), dataset.Hourly, tmpl)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Table.Len() != 8 {
		t.Errorf("rows = %d, want 8", res.Table.Len())
	}
	if got := mock.AuthCount(); got != 1 {
		t.Errorf("AuthCount = %d, want a single shared login", got)
	}
}
