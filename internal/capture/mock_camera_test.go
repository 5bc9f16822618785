package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	// Create test frames
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	// Read both frames
	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	// Should loop indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_OpenError(t *testing.T) {
	cam := NewMockCamera(nil, false)
	cam.SetOpenError(ErrOpenFailed)

	if err := cam.Open(); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open() error = %v, want ErrOpenFailed", err)
	}
	if cam.IsOpen() {
		t.Error("camera should not be open after a failed Open()")
	}
	if cam.OpenCount() != 0 {
		t.Errorf("OpenCount() = %d, want 0", cam.OpenCount())
	}
}

func TestMockCamera_ReadError(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	readErr := errors.New("device unplugged")
	cam.SetReadError(readErr)
	if _, err := cam.ReadFrame(); !errors.Is(err, readErr) {
		t.Errorf("ReadFrame() error = %v, want %v", err, readErr)
	}

	cam.SetReadError(nil)
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after clearing error = %v", err)
	}
	f.Close()
}

func TestMockCamera_CountsOpenClose(t *testing.T) {
	cam := NewMockCamera(nil, false)

	cam.Open()
	cam.Close()
	cam.Close()

	if cam.OpenCount() != 1 || cam.CloseCount() != 1 {
		t.Errorf("OpenCount/CloseCount = %d/%d, want 1/1", cam.OpenCount(), cam.CloseCount())
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() on closed camera error = %v, want ErrCameraNotOpen", err)
	}
}
