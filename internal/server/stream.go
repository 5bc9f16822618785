package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// FrameSource supplies the latest annotated JPEG frame. *session.Preview satisfies it.
type FrameSource interface {
	Latest() ([]byte, time.Time, bool)
}

// StreamHandler serves annotated frames as MJPEG and single snapshots.
type StreamHandler struct {
	frames   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames FrameSource) *StreamHandler {
	return &StreamHandler{frames: frames, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames until the client disconnects, or answers 204
// when no frame has been produced yet. Frames are only written when the source
// has a newer one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.frames.Latest(); !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last time.Time
	for {
		if buf, at, ok := h.frames.Latest(); ok && at.After(last) {
			last = at
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
			if _, err := w.Write(buf); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// Snapshot writes the latest frame as a single JPEG, or 204 when there is none.
func (h *StreamHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	buf, _, ok := h.frames.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf)
}
