package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMessageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "message.txt")
	if err := os.WriteFile(path, []byte("  客户张三，成交5000元  \n"), 0644); err != nil {
		t.Fatalf("write message: %v", err)
	}

	got, err := ReadMessage(path)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got != "客户张三，成交5000元" {
		t.Errorf("ReadMessage() = %q", got)
	}
}

func TestReadMessageEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("   \n"), 0644); err != nil {
		t.Fatalf("write message: %v", err)
	}

	if _, err := ReadMessage(path); err == nil {
		t.Fatal("ReadMessage() expected an error for empty content")
	}
}

func TestReadMessageMissingFile(t *testing.T) {
	if _, err := ReadMessage(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("ReadMessage() expected an error for a missing file")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"longer than ten", 10, "longer th…"},
		{"北京市朝阳区某小区", 5, "北京市朝…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
