package weights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	if _, err := Lookup("db_resnet50", ".tflite"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if _, err := Lookup("my_fancy_model", ".tflite"); err == nil {
		t.Fatalf("Lookup() expected error for unknown architecture")
	}
}

func TestKnownCoversBothRuntimes(t *testing.T) {
	keys := Known()
	var tflite, onnx int
	for _, k := range keys {
		switch {
		case strings.HasSuffix(k, ".tflite"):
			tflite++
		case strings.HasSuffix(k, ".onnx"):
			onnx++
		}
	}
	if tflite == 0 || tflite != onnx {
		t.Fatalf("expected matching artifact counts, got %d tflite / %d onnx", tflite, onnx)
	}
}

func TestCacheDirEnvOverride(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/ocrkit-test-cache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error = %v", err)
	}
	if dir != "/tmp/ocrkit-test-cache" {
		t.Fatalf("CacheDir() = %s", dir)
	}
}

func TestFetchDownloadsAndVerifies(t *testing.T) {
	payload := []byte("model bytes")
	sum := sha256.Sum256(payload)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	key := "db_resnet50.tflite"
	saved := registry[key]
	registry[key] = Artifact{URL: srv.URL + "/db_resnet50.tflite", SHA256: hex.EncodeToString(sum[:])}
	t.Cleanup(func() { registry[key] = saved })

	f := &Fetcher{CacheDir: dir}
	path, err := f.Fetch(context.Background(), "db_resnet50", ".tflite")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("cached artifact = %q", got)
	}

	// Second call must hit the cache, not the server.
	srv.Close()
	if _, err := f.Fetch(context.Background(), "db_resnet50", ".tflite"); err != nil {
		t.Fatalf("Fetch() from cache error = %v", err)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	key := "crnn_vgg16_bn.onnx"
	saved := registry[key]
	registry[key] = Artifact{URL: srv.URL + "/crnn_vgg16_bn.onnx", SHA256: strings.Repeat("0", 64)}
	t.Cleanup(func() { registry[key] = saved })

	f := &Fetcher{CacheDir: dir}
	if _, err := f.Fetch(context.Background(), "crnn_vgg16_bn", ".onnx"); err == nil {
		t.Fatalf("Fetch() expected checksum error")
	}
	if _, err := os.Stat(filepath.Join(dir, "crnn_vgg16_bn.onnx")); !os.IsNotExist(err) {
		t.Fatalf("corrupt artifact should be removed")
	}
}
