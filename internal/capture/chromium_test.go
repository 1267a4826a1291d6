package capture

import (
	"context"
	"testing"
	"time"
)

func TestOptionsNormalize(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8080/board", OutputPath: "out.png"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", o)
	}

	o = Options{URL: "x", OutputPath: "y", Width: 800, Height: 600, Timeout: time.Second}
	if err := o.normalize(); err != nil || o.Width != 800 || o.Timeout != time.Second {
		t.Fatalf("explicit values overwritten: %+v %v", o, err)
	}
}

func TestCaptureRequiresURLAndOutput(t *testing.T) {
	if err := CaptureBoardPNG(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Fatal("expected error without URL")
	}
	if err := CaptureBoardPNG(context.Background(), Options{URL: "http://x"}); err == nil {
		t.Fatal("expected error without output path")
	}
}
