package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/formcheck/internal/countstore"
	"github.com/go-chi/chi/v5"
)

type memCounts struct {
	counts map[string]map[string]int
	err    error
}

func newMemCounts() *memCounts {
	return &memCounts{counts: map[string]map[string]int{}}
}

func (m *memCounts) FetchCounts(ctx context.Context, email, game string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]int{}
	for k, v := range m.counts[email+":"+game] {
		out[k] = v
	}
	return out, nil
}

func (m *memCounts) UpdateCount(ctx context.Context, email, game, task string, count int) error {
	if m.err != nil {
		return m.err
	}
	key := email + ":" + game
	if m.counts[key] == nil {
		m.counts[key] = map[string]int{}
	}
	m.counts[key][task] = count
	return nil
}

func newTaskCountRouter(s countstore.Store) *chi.Mux {
	r := chi.NewRouter()
	NewTaskCountHandler(s, discardLogger()).RegisterRoutes(r)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTaskCountHandler_UpdateThenFetch(t *testing.T) {
	r := newTaskCountRouter(newMemCounts())

	for _, body := range []string{
		`{"email":"a@b.c","game":"fit","task_name":"Squats","count":3}`,
		`{"email":"a@b.c","game":"fit","task_name":"Planks","count":0}`,
		`{"email":"other@b.c","game":"fit","task_name":"Squats","count":9}`,
	} {
		rec := post(r, "/update_task_count", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("update %s: status %d", body, rec.Code)
		}
	}

	rec := post(r, "/get_task_counts", `{"email":"a@b.c","game":"fit"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp countstore.FetchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	want := []countstore.TaskCount{{TaskName: "Planks", Count: 0}, {TaskName: "Squats", Count: 3}}
	if len(resp.Counts) != len(want) {
		t.Fatalf("counts = %+v, want %+v", resp.Counts, want)
	}
	for i := range want {
		if resp.Counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, resp.Counts[i], want[i])
		}
	}
}

func TestTaskCountHandler_FetchEmpty(t *testing.T) {
	r := newTaskCountRouter(newMemCounts())

	rec := post(r, "/get_task_counts", `{"email":"new@b.c","game":"fit"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"counts":[]`)) {
		t.Errorf("expected empty counts array, got %s", rec.Body.String())
	}
}

func TestTaskCountHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"fetch invalid json", "/get_task_counts", `{`},
		{"fetch missing game", "/get_task_counts", `{"email":"a@b.c"}`},
		{"update missing task", "/update_task_count", `{"email":"a@b.c","game":"fit","count":1}`},
		{"update missing count", "/update_task_count", `{"email":"a@b.c","game":"fit","task_name":"Squats"}`},
		{"update negative count", "/update_task_count", `{"email":"a@b.c","game":"fit","task_name":"Squats","count":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newTaskCountRouter(newMemCounts()), tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if resp := decodeResult(t, rec); resp.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestTaskCountHandler_StoreFailure(t *testing.T) {
	s := newMemCounts()
	s.err = errors.New("disk full")
	r := newTaskCountRouter(s)

	if rec := post(r, "/get_task_counts", `{"email":"a@b.c","game":"fit"}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("fetch status = %d, want 500", rec.Code)
	}
	if rec := post(r, "/update_task_count", `{"email":"a@b.c","game":"fit","task_name":"Squats","count":1}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("update status = %d, want 500", rec.Code)
	}
}

// The HTTP client and the handler speak the same wire format.
func TestTaskCountHandler_RoundTripWithClient(t *testing.T) {
	ts := httptest.NewServer(newTaskCountRouter(newMemCounts()))
	defer ts.Close()

	client := countstore.NewHTTPClient(ts.URL, 0)
	ctx := context.Background()

	if err := client.UpdateCount(ctx, "a@b.c", "fit", "Lunges", 6); err != nil {
		t.Fatalf("UpdateCount() error = %v", err)
	}
	counts, err := client.FetchCounts(ctx, "a@b.c", "fit")
	if err != nil {
		t.Fatalf("FetchCounts() error = %v", err)
	}
	if counts["Lunges"] != 6 {
		t.Errorf("counts = %v, want Lunges=6", counts)
	}

	if err := client.UpdateCount(ctx, "", "fit", "Lunges", 6); !errors.Is(err, countstore.ErrRejected) {
		t.Errorf("expected ErrRejected for missing email, got %v", err)
	}
}
