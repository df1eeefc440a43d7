package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orderledger/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(config.GeminiConfig{
		BaseURL:        srv.URL,
		Model:          "gemini-1.5-flash",
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func candidateJSON(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestFormat(t *testing.T) {
	message := "客户张三，电话13800138000，CMA检测5个点位，送2个除醛宝"

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(candidateJSON("张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,,")))
	})

	got, err := client.Format(context.Background(), message)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "张三,13800138000,北京市朝阳区某小区,国标,5000,100,2024-01-15,5,{除醛宝:2}"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatAPIErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	})

	if _, err := client.Format(context.Background(), "消息"); err == nil {
		t.Fatal("Format() expected an error on a non-200 status")
	}
}

func TestFormatNoCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	if _, err := client.Format(context.Background(), "消息"); err == nil {
		t.Fatal("Format() expected an error on an empty candidate list")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(config.GeminiConfig{APIKeyEnv: "GEMINI_API_KEY"}); err == nil {
		t.Error("expected an error for a missing API key")
	}
}

func TestPostProcessOverwritesExtractedColumns(t *testing.T) {
	line := "张三,13800138000,地址,国标,5000,100,2024-01-15,99,{炭包:9}"
	original := "CMA检测5个点位，送2个除醛宝"

	got := PostProcess(line, original)

	if !strings.Contains(got, ",5,") {
		t.Errorf("point count not overwritten: %q", got)
	}
	if !strings.Contains(got, "{除醛宝:2}") {
		t.Errorf("gift notes not overwritten: %q", got)
	}
	if strings.Contains(got, "炭包:9") {
		t.Errorf("stale gift notes survived: %q", got)
	}
}

func TestPostProcessPadsShortRows(t *testing.T) {
	got := PostProcess("张三,13800138000,地址", "CMA检测3个点位")

	fields := strings.Split(got, ",")
	if len(fields) != 9 {
		t.Fatalf("fields = %d, want 9: %q", len(fields), got)
	}
	if fields[7] != "3" {
		t.Errorf("point count = %q, want 3", fields[7])
	}
}

func TestPostProcessKeepsColumnsWithoutExtractedValues(t *testing.T) {
	line := "张三,13800138000,地址,国标,5000,100,2024-01-15,7,{炭包:2}"

	got := PostProcess(line, "没有任何赠品信息")

	if !strings.Contains(got, ",7,") {
		t.Errorf("point count lost: %q", got)
	}
	if !strings.Contains(got, "{炭包:2}") {
		t.Errorf("gift notes lost: %q", got)
	}
}
