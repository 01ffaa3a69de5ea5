package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeAlpaca struct {
	bars []marketdata.Bar
	err  error
	reqs []marketdata.GetBarsRequest
}

func (f *fakeAlpaca) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.reqs = append(f.reqs, req)
	return f.bars, f.err
}

func TestAlpacaFetchDailyBars(t *testing.T) {
	fake := &fakeAlpaca{bars: []marketdata.Bar{
		// Daily bars are stamped at midnight Eastern.
		{Timestamp: time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 300},
		{Timestamp: time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 200},
	}}
	a := newAlpacaWithClient(fake, "", time.Minute)

	bars, err := a.FetchDailyBars(context.Background(), "aapl", day("2024-01-01"), day("2024-01-05"))
	if err != nil {
		t.Fatalf("FetchDailyBars error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if !bars[0].Date.Equal(day("2024-01-02")) || bars[0].Close != 9.5 || bars[0].Volume != 200 {
		t.Errorf("first bar mismatch: %+v", bars[0])
	}
	if bars[1].Ticker != "AAPL" {
		t.Errorf("ticker = %q, want AAPL", bars[1].Ticker)
	}

	req := fake.reqs[0]
	if req.TimeFrame != marketdata.OneDay || req.Feed != marketdata.IEX {
		t.Errorf("request = %+v, want daily IEX", req)
	}
	if !req.End.Equal(day("2024-01-06")) {
		t.Errorf("End = %v, want exclusive 2024-01-06", req.End)
	}

	if _, err := a.FetchDailyBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-05")); err != nil {
		t.Fatalf("cached call error: %v", err)
	}
	if len(fake.reqs) != 1 {
		t.Errorf("expected cached second call, got %d requests", len(fake.reqs))
	}
}

func TestAlpacaFetchDailyBarsErrors(t *testing.T) {
	a := newAlpacaWithClient(&fakeAlpaca{}, "iex", time.Minute)
	if _, err := a.FetchDailyBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-05")); !errors.Is(err, ErrNoData) {
		t.Errorf("empty: got %v, want ErrNoData", err)
	}

	boom := errors.New("forbidden")
	a = newAlpacaWithClient(&fakeAlpaca{err: boom}, "iex", time.Minute)
	if _, err := a.FetchDailyBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-05")); !errors.Is(err, boom) {
		t.Errorf("client error: got %v, want wrapped %v", err, boom)
	}
}

func TestNewAlpacaRequiresCredentials(t *testing.T) {
	if _, err := NewAlpaca("", "secret", "iex", time.Minute); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("got %v, want ErrMissingCredentials", err)
	}
	a, err := NewAlpaca("key", "secret", "sip", time.Minute)
	if err != nil {
		t.Fatalf("NewAlpaca error: %v", err)
	}
	if a.Name() != "Alpaca" || a.feed != "sip" {
		t.Errorf("unexpected source: %s %s", a.Name(), a.feed)
	}
}
