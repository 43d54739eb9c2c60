package detection

import (
	"testing"

	"github.com/wudi/ocrkit/geometry"
)

// fillRect paints a rectangle of the given probability onto the map.
func fillRect(h geometry.Heatmap, x0, y0, x1, y1 int, v float32) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			h.Set(y, x, v)
		}
	}
}

func TestPostProcessExtractsBoxes(t *testing.T) {
	cfg, err := Arch("db_resnet50")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	probMap := geometry.NewHeatmap(64, 64)
	fillRect(probMap, 4, 4, 20, 10, 0.9)
	fillRect(probMap, 30, 40, 60, 48, 0.8)

	boxes := PostProcess(probMap, cfg)
	if len(boxes) != 2 {
		t.Fatalf("PostProcess() boxes = %d, want 2", len(boxes))
	}
	for _, b := range boxes {
		if err := b.Validate(); err != nil {
			t.Fatalf("box violates output contract: %v", err)
		}
		if b.Score < float64(cfg.BoxThresh) {
			t.Fatalf("box score %v below threshold", b.Score)
		}
	}
}

func TestPostProcessDropsLowScore(t *testing.T) {
	cfg, err := Arch("db_resnet50")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	cfg.BinThresh = 0.05
	cfg.BoxThresh = 0.5
	probMap := geometry.NewHeatmap(32, 32)
	fillRect(probMap, 2, 2, 12, 8, 0.1)

	if boxes := PostProcess(probMap, cfg); len(boxes) != 0 {
		t.Fatalf("PostProcess() = %d boxes, want 0 below box threshold", len(boxes))
	}
}

func TestPostProcessDropsTinyComponents(t *testing.T) {
	cfg, err := Arch("db_resnet50")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	probMap := geometry.NewHeatmap(32, 32)
	probMap.Set(5, 5, 0.95) // single pixel, below the 2px minimum

	if boxes := PostProcess(probMap, cfg); len(boxes) != 0 {
		t.Fatalf("PostProcess() = %d boxes, want 0 for sub-pixel component", len(boxes))
	}
}

func TestPostProcessUnclipExpands(t *testing.T) {
	cfg, err := Arch("db_resnet50")
	if err != nil {
		t.Fatalf("Arch() error = %v", err)
	}
	probMap := geometry.NewHeatmap(100, 100)
	fillRect(probMap, 40, 40, 60, 50, 0.9)

	boxes := PostProcess(probMap, cfg)
	if len(boxes) != 1 {
		t.Fatalf("PostProcess() boxes = %d, want 1", len(boxes))
	}
	b := boxes[0]
	// The shrunk 20x10 component must grow beyond its raw bounds.
	if b.XMin >= 0.40 || b.XMax <= 0.60 || b.YMin >= 0.40 || b.YMax <= 0.50 {
		t.Fatalf("unclip did not expand box: %+v", b.BBox)
	}
}

func TestArchUnknown(t *testing.T) {
	if _, err := Arch("my_fancy_model"); err == nil {
		t.Fatalf("Arch() expected error for unknown architecture")
	}
}

func TestArchitecturesStable(t *testing.T) {
	names := Architectures()
	if len(names) != 5 {
		t.Fatalf("Architectures() = %v", names)
	}
	if names[0] != "db_mobilenet_v3_large" {
		t.Fatalf("Architectures() not sorted: %v", names)
	}
}
