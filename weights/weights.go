// Package weights resolves pretrained model artifacts: it knows the published
// location and checksum of every architecture the zoo exposes, caches
// downloads under the user cache directory and verifies integrity before
// handing a path to an inference runtime.
package weights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvCacheDir overrides the artifact cache location.
const EnvCacheDir = "OCRKIT_CACHE_DIR"

const releaseBase = "https://github.com/wudi/ocrkit-models/releases/download/v0.1.0"

// Artifact describes one downloadable model file.
type Artifact struct {
	URL    string
	SHA256 string
}

// registry maps "<arch><ext>" to its artifact.
var registry = map[string]Artifact{
	"db_resnet50.tflite":           {releaseBase + "/db_resnet50-adcafc63.tflite", "adcafc63f54a96e1ff12a1a079526d79974e7dda9aa1e8261fb21282dee11bd0"},
	"db_resnet50.onnx":             {releaseBase + "/db_resnet50-69ba0015.onnx", "69ba00151a908d2b4d8d2a6cbbca5d26dd829a1b1a4b0170cb7aaf7b1a59a33e"},
	"db_mobilenet_v3_large.tflite": {releaseBase + "/db_mobilenet_v3_large-8c16d5bf.tflite", "8c16d5bf64d3a4a2a9f35a52298c3a9dbb8e4cd34dbf0f5a2b7cdb0a6ef20a61"},
	"db_mobilenet_v3_large.onnx":   {releaseBase + "/db_mobilenet_v3_large-21748dd0.onnx", "21748dd08abbd7d438c2bd45ff3b60eecf2ce40d7ee45416995c1ea55639c122"},
	"linknet_resnet18.tflite":      {releaseBase + "/linknet_resnet18-611b50f2.tflite", "611b50f2ec01bbbedb5169e37be106d30ca94a7c1a9b3eacfb8ee26e12468bf5"},
	"linknet_resnet18.onnx":        {releaseBase + "/linknet_resnet18-e47a14dc.onnx", "e47a14dc4e979961b36e39f4bdf25ca612d1f7bda4a79cd25bbf20d1c5c4fe12"},
	"linknet_resnet34.tflite":      {releaseBase + "/linknet_resnet34-d876e7e2.tflite", "d876e7e240b583d49eb0dbdbcb27bd7c15a9d2c33e9d23f503a4b4b5a66dd067"},
	"linknet_resnet34.onnx":        {releaseBase + "/linknet_resnet34-95d9e1ba.onnx", "95d9e1ba1a4000bfdad1a9b22fd2a2d4b6e0f6d1fba3c0e96d8b77f4ce70fbc8"},
	"linknet_resnet50.tflite":      {releaseBase + "/linknet_resnet50-33850447.tflite", "338504479531d2dcbb7dc951b4b10f638caa1b58a14e8e4600e6ee6a6c4b5c32"},
	"linknet_resnet50.onnx":        {releaseBase + "/linknet_resnet50-7e1e9dc3.onnx", "7e1e9dc30bfd11a0aedadfe012f7ba786a4cb47ad4a1dfbe29bfdf3a105e3649"},
	"crnn_vgg16_bn.tflite":         {releaseBase + "/crnn_vgg16_bn-76b7f2c6.tflite", "76b7f2c6efb0c693556e2f76e62a2adeb4775d6cd9d1a0b8302b3a78c4c62ab9"},
	"crnn_vgg16_bn.onnx":           {releaseBase + "/crnn_vgg16_bn-e47e2b43.onnx", "e47e2b43a34c71d4d1e875b43b9b17a64cd94da8b45c5557685fed8ae33f2ff5"},
	"crnn_mobilenet_v3_small.tflite": {releaseBase + "/crnn_mobilenet_v3_small-7f36edec.tflite", "7f36edec8ae5cfa07b10b86a8c8c2678cdb7cf5a160a0a9a04e9bb65d96f408c"},
	"crnn_mobilenet_v3_small.onnx":   {releaseBase + "/crnn_mobilenet_v3_small-1a48a855.onnx", "1a48a8559eddcac19f4f9eec1a1bf73a416e12cbe96a8fcee8a58bbbfb319eb1"},
	"crnn_mobilenet_v3_large.tflite": {releaseBase + "/crnn_mobilenet_v3_large-47b7ecb2.tflite", "47b7ecb2f42de2e0702959870c30c28c26cfc1c6c8da52e71f8c7afa1a1bbee4"},
	"crnn_mobilenet_v3_large.onnx":   {releaseBase + "/crnn_mobilenet_v3_large-c693a5b7.onnx", "c693a5b79a1fb5eef94c31653e2a2b6e6851ac9b43f60e8c157f4a5774bfdae2"},
	"sar_resnet31.tflite":          {releaseBase + "/sar_resnet31-c21bbbd1.tflite", "c21bbbd1a49b8e0e16ffb741b4ff21b0cea22ccbcd99f2e47aae2f7bdbcf2b21"},
	"sar_resnet31.onnx":            {releaseBase + "/sar_resnet31-73c57a76.onnx", "73c57a760f4fcbd9a2a5f8cae4bef9aef2da9229e30754f7f6fa6d9e5a60cf33"},
	"master.tflite":                {releaseBase + "/master-9a443752.tflite", "9a443752eebcbea5924c5e0cb5f6ef5ba3c5a29844a2c71c5d3c24bbfa2f1b40"},
	"master.onnx":                  {releaseBase + "/master-a8c34e97.onnx", "a8c34e97c21f25d506b6e43e936a2a2bdbb41f2f9d3e57be843f4ccc909a4e22"},
}

// Known lists the registered artifact keys in sorted order.
func Known() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the artifact for an architecture and runtime extension.
func Lookup(arch, ext string) (Artifact, error) {
	a, ok := registry[arch+ext]
	if !ok {
		return Artifact{}, fmt.Errorf("no pretrained artifact for %s%s", arch, ext)
	}
	return a, nil
}

// CacheDir returns the directory holding downloaded artifacts.
func CacheDir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "ocrkit"), nil
}

// Fetcher downloads and verifies artifacts. The zero value uses the default
// HTTP client and the standard cache directory.
type Fetcher struct {
	Client   *http.Client
	CacheDir string
}

// Fetch returns a local path for the architecture's artifact, downloading it
// on first use and verifying the checksum on every call.
func (f *Fetcher) Fetch(ctx context.Context, arch, ext string) (string, error) {
	art, err := Lookup(arch, ext)
	if err != nil {
		return "", err
	}
	dir := f.CacheDir
	if dir == "" {
		dir, err = CacheDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	dest := filepath.Join(dir, arch+ext)
	if ok, err := verify(dest, art.SHA256); err == nil && ok {
		return dest, nil
	}

	if err := f.download(ctx, art, dest); err != nil {
		return "", err
	}
	ok, err := verify(dest, art.SHA256)
	if err != nil {
		return "", err
	}
	if !ok {
		os.Remove(dest)
		return "", fmt.Errorf("checksum mismatch for %s", art.URL)
	}
	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, art Artifact, dest string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, art.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", art.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", art.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	return os.Rename(tmp.Name(), dest)
}

func verify(path, wantHex string) (bool, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer fh.Close()
	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return false, err
	}
	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), wantHex), nil
}
