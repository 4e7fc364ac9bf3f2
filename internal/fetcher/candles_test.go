package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 9, 27, 13, 28, 31, 0, time.UTC)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:   baseURL,
		Timeframe: "1hr",
		Window:    24 * time.Hour,
		Timeout:   time.Second,
		UserAgent: "test",
		Now:       func() time.Time { return fixedNow },
	}
}

// newestFirstCandles mimics Gemini: hourly candles, newest first, going back hours.
func newestFirstCandles(hours int) [][]any {
	top := fixedNow.Truncate(time.Hour)
	rows := make([][]any, 0, hours)
	for i := 0; i < hours; i++ {
		ts := top.Add(-time.Duration(i) * time.Hour)
		closePrice := 57000 + float64(i)*0.5
		rows = append(rows, []any{ts.UnixMilli(), closePrice - 1, closePrice + 2, closePrice - 3, closePrice, 12.5})
	}
	return rows
}

func TestCandlesFetchSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newestFirstCandles(48))
	}))
	defer srv.Close()

	c, err := NewCandles(testOptions(srv.URL), noopLogger())
	if err != nil {
		t.Fatalf("构造 fetcher 失败: %v", err)
	}

	window, err := c.FetchWindow(context.Background(), "BTCUSD")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}

	if gotPath != "/v2/candles/btcusd/1hr" {
		t.Fatalf("请求路径不正确: %s", gotPath)
	}
	if len(window) != 25 {
		t.Fatalf("期望 25 根蜡烛, 实际 %d", len(window))
	}
	if !window.IsChronological() {
		t.Fatal("窗口应按时间升序")
	}

	wantFirst := time.Date(2024, 9, 26, 13, 0, 0, 0, time.UTC)
	if !window.First().Time.Equal(wantFirst) {
		t.Fatalf("最早样本时间应为 %s, 实际 %s", wantFirst, window.First().Time)
	}
	if !window.Last().Price.Equal(decimal.NewFromInt(57000)) {
		t.Fatalf("最新价格应为最新蜡烛收盘价, 实际 %s", window.Last().Price)
	}
	if !window.First().Price.Equal(decimal.RequireFromString("57012")) {
		t.Fatalf("最早价格不正确: %s", window.First().Price)
	}
}

func TestCandlesFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "error", "reason": "InvalidSymbol", "message": "Supplied value 'nope' is not a valid symbol"})
	}))
	defer srv.Close()

	c, err := NewCandles(testOptions(srv.URL), noopLogger())
	if err != nil {
		t.Fatalf("构造 fetcher 失败: %v", err)
	}

	_, err = c.FetchWindow(context.Background(), "nope")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("HTTP 400 应返回 FetchError, 实际 %v", err)
	}
	if fetchErr.Symbol != "nope" || fetchErr.Op != "request candles" {
		t.Fatalf("FetchError 上下文不正确: %+v", fetchErr)
	}
}

func TestCandlesFetchMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		op   string
	}{
		{name: "not json", body: "<html>oops</html>", op: "decode candles"},
		{name: "object", body: `{"candles":[]}`, op: "decode candles"},
		{name: "short row", body: `[[1727442000000, 1, 2]]`, op: "decode candles"},
		{name: "bad close", body: `[[1727442000000, 1, 2, 3, "x", 5]]`, op: "decode candles"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewCandles(testOptions(srv.URL), noopLogger())
			if err != nil {
				t.Fatalf("构造 fetcher 失败: %v", err)
			}

			_, err = c.FetchWindow(context.Background(), "BTCUSD")
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("格式错误应返回 FetchError, 实际 %v", err)
			}
			if fetchErr.Op != tc.op {
				t.Fatalf("期望 op=%s, 实际 %s", tc.op, fetchErr.Op)
			}
		})
	}
}

func TestCandlesFetchEmpty(t *testing.T) {
	stale := [][]any{{fixedNow.Add(-72 * time.Hour).UnixMilli(), 1, 1, 1, 1, 1}}
	for _, body := range []any{[][]any{}, stale} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(body)
		}))

		c, err := NewCandles(testOptions(srv.URL), noopLogger())
		if err != nil {
			srv.Close()
			t.Fatalf("构造 fetcher 失败: %v", err)
		}

		_, err = c.FetchWindow(context.Background(), "BTCUSD")
		srv.Close()
		if !errors.Is(err, ErrEmptyWindow) {
			t.Fatalf("空窗口应返回 ErrEmptyWindow, 实际 %v", err)
		}
	}
}

func TestNewUnsupported(t *testing.T) {
	if _, err := New("orderbook", Options{}, noopLogger()); err == nil {
		t.Fatal("未知 source 应报错")
	}
	if _, err := New(SourceCandles, Options{Timeframe: "2hr"}, noopLogger()); err == nil {
		t.Fatal("未知 timeframe 应报错")
	}
	if f, err := New("", Options{}, noopLogger()); err != nil {
		t.Fatalf("默认 source 不应报错: %v", err)
	} else if _, ok := f.(*Candles); !ok {
		t.Fatalf("默认 source 应为 candles, 实际 %T", f)
	}
}
