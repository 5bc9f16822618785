package session

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/exercise"
	"gocv.io/x/gocv"
)

var (
	overlayGreen = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	overlayRed   = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

// Preview holds the most recent processed frame as a JPEG with the count drawn on it.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	updated time.Time
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Update draws the overlay onto frame and stores it as the latest JPEG.
// frame is modified in place.
func (p *Preview) Update(frame *gocv.Mat, cfg exercise.Config, lm detector.Landmarks, v exercise.Verdict, count, maxCount int) error {
	if frame == nil || frame.Empty() {
		return nil
	}

	mark := overlayRed
	if v.Correct {
		mark = overlayGreen
	}

	w, h := frame.Cols(), frame.Rows()
	for _, j := range cfg.Joints {
		jp, ok := lm.Get(j)
		if !ok {
			continue
		}
		pt := image.Pt(int(jp.X*float64(w)), int(jp.Y*float64(h)))
		gocv.Circle(frame, pt, 6, mark, -1)
	}

	gocv.PutText(frame, fmt.Sprintf("Count: %d/%d", count, maxCount), image.Pt(50, 50),
		gocv.FontHersheySimplex, 1, overlayGreen, 2)
	if len(v.Missing) == 0 && v.Confidence > 0 {
		gocv.PutText(frame, fmt.Sprintf("%s %.0f deg", cfg.Name, v.Angle), image.Pt(50, 90),
			gocv.FontHersheySimplex, 0.7, mark, 2)
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return err
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	p.mu.Lock()
	p.jpeg = data
	p.updated = time.Now()
	p.mu.Unlock()
	return nil
}

// Latest returns the last stored JPEG, or false if no frame has been processed.
func (p *Preview) Latest() ([]byte, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.jpeg == nil {
		return nil, time.Time{}, false
	}
	return p.jpeg, p.updated, true
}

// Clear drops the stored frame.
func (p *Preview) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = nil
	p.updated = time.Time{}
}
