package snapshot

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/quentinrf/lightlevel/internal/domain"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func writePNG(t *testing.T, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestCapture_DecodesCommandOutput(t *testing.T) {
	requireTool(t, "cat")
	path := writePNG(t, color.RGBA{R: 255, A: 255})

	cam := New(Config{Command: "cat " + path, LockFile: filepath.Join(t.TempDir(), "camera.lock")})
	sess, err := cam.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	img, err := sess.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0xffff || g != 0 || b != 0 {
		t.Errorf("unexpected pixel %d %d %d", r, g, b)
	}
}

func TestCapture_Garbage(t *testing.T) {
	requireTool(t, "echo")

	sess, err := New(Config{Command: "echo not-an-image"}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Capture(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestCapture_CloseKillsCommand(t *testing.T) {
	requireTool(t, "sleep")

	sess, err := New(Config{Command: "sleep 30"}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sess.Capture(context.Background())
		done <- err
	}()

	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-done; err == nil {
		t.Error("expected capture to fail after close")
	}
}

func TestOpen_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "missing command",
			cfg:  Config{Command: "definitely-not-a-capture-tool -"},
		},
		{
			name: "missing device",
			cfg:  Config{Command: "cat", Device: filepath.Join(t.TempDir(), "video9")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg).Open(context.Background())
			if !errors.Is(err, domain.ErrDeviceUnavailable) {
				t.Errorf("expected ErrDeviceUnavailable, got %v", err)
			}
		})
	}
}

func TestNew_DefaultCommand(t *testing.T) {
	cam := New(Config{})
	if cam.args[0] != "fswebcam" {
		t.Errorf("expected fswebcam default, got %v", cam.args)
	}
}
