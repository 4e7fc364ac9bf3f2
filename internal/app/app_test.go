package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stddevalert/internal/config"
	"stddevalert/internal/deviation"
	"stddevalert/internal/fetcher"
	"stddevalert/internal/logging"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "stddevalert"},
		Logging: logging.Config{Level: "INFO"},
		Gemini: config.GeminiConfig{
			BaseURL:        baseURL,
			Source:         fetcher.SourceCandles,
			Timeframe:      "1hr",
			RequestTimeout: time.Second,
			UserAgent:      "test",
		},
		Alert: config.AlertConfig{
			Threshold:    1.0,
			Window:       24 * time.Hour,
			OutputFormat: "json",
			Timezone:     "UTC",
		},
		Chart: config.ChartConfig{Width: 640, Height: 360},
	}
}

func newTestApp(cfg *config.Config) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, logs bytes.Buffer
	a := NewApp(cfg, zerolog.New(&logs))
	a.Stdout = &out
	return a, &out, &logs
}

// candleServer serves recent hourly candles, newest first.
func candleServer(t *testing.T, closes ...float64) *httptest.Server {
	t.Helper()
	top := time.Now().UTC().Truncate(time.Hour)
	rows := make([][]any, len(closes))
	for i, c := range closes {
		ts := top.Add(-time.Duration(len(closes)-1-i) * time.Hour)
		rows[len(closes)-1-i] = []any{ts.UnixMilli(), c, c, c, c, 1}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rows)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSimulateEmitsRecord(t *testing.T) {
	a, out, logs := newTestApp(testConfig(""))

	err := a.Simulate(context.Background(), SimulateOptions{Symbol: "btcusd", Prices: []string{"100", "102", "98", "101"}})
	if err != nil {
		t.Fatalf("模拟不应报错: %v", err)
	}
	if !strings.Contains(out.String(), `"trading_pair":"BTCUSD","deviation":true`) {
		t.Fatalf("应输出告警记录: %s", out.String())
	}
	if !strings.Contains(logs.String(), `"run_id"`) {
		t.Fatalf("日志应包含 run_id: %s", logs.String())
	}
}

func TestSimulateInvalidPrices(t *testing.T) {
	a, out, _ := newTestApp(testConfig(""))

	if err := a.Simulate(context.Background(), SimulateOptions{Symbol: "btcusd"}); err == nil {
		t.Fatal("缺少价格应报错")
	}
	if err := a.Simulate(context.Background(), SimulateOptions{Symbol: "btcusd", Prices: []string{"1", "abc"}}); err == nil {
		t.Fatal("非法价格应报错")
	}

	err := a.Simulate(context.Background(), SimulateOptions{Symbol: "btcusd", Prices: []string{"1"}})
	var insufficient *deviation.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("单个价格应返回 InsufficientDataError, 实际 %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("失败时主输出应为空: %q", out.String())
	}
}

func TestCheckAgainstAPI(t *testing.T) {
	srv := candleServer(t, 100, 102, 98, 101)

	cfg := testConfig(srv.URL)
	cfg.Alert.OutputFormat = "yaml"
	a, out, _ := newTestApp(cfg)

	if err := a.Check(context.Background(), "btcusd"); err != nil {
		t.Fatalf("检查不应报错: %v", err)
	}
	if !strings.Contains(out.String(), "trading_pair: BTCUSD") || !strings.Contains(out.String(), "average_price: 100.25") {
		t.Fatalf("YAML 输出不正确: %s", out.String())
	}

	cfg.Alert.Threshold = 2.0
	out.Reset()
	if err := a.Check(context.Background(), "btcusd"); err != nil {
		t.Fatalf("检查不应报错: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("未触发时不应输出: %s", out.String())
	}
}

func TestCheckUnreachableAPI(t *testing.T) {
	srv := candleServer(t, 1, 2)
	url := srv.URL
	srv.Close()

	a, out, _ := newTestApp(testConfig(url))
	err := a.Check(context.Background(), "btcusd")
	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("应返回 FetchError, 实际 %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("失败时主输出应为空: %q", out.String())
	}
}

func TestShowPrintsTable(t *testing.T) {
	srv := candleServer(t, 100, 102, 98, 101)
	a, out, _ := newTestApp(testConfig(srv.URL))

	if err := a.Show(context.Background(), ShowOptions{Symbol: "btcusd"}); err != nil {
		t.Fatalf("show 不应报错: %v", err)
	}
	for _, want := range []string{"BTCUSD", "100.2500", "1.7078", "101.00"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("表格缺少 %q:\n%s", want, out.String())
		}
	}
}

func TestChartWritesFiles(t *testing.T) {
	srv := candleServer(t, 100, 102, 98, 101)
	a, _, _ := newTestApp(testConfig(srv.URL))

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "window.csv")
	pngPath := filepath.Join(dir, "out", "window.png")

	if err := a.Chart(context.Background(), ChartOptions{Symbol: "btcusd", CSVPath: csvPath, PNGPath: pngPath}); err != nil {
		t.Fatalf("chart 不应报错: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("CSV 未生成: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("CSV 无法解析: %v", err)
	}
	if len(rows) != 5 || rows[0][0] != "timestamp" || rows[1][1] != "100" {
		t.Fatalf("CSV 内容不正确: %v", rows)
	}

	png, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatalf("PNG 未生成: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("PNG 文件头不正确")
	}

	if err := a.Chart(context.Background(), ChartOptions{Symbol: "btcusd"}); err == nil {
		t.Fatal("未指定输出路径应报错")
	}
}
