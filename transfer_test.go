package civit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// fileServer serves body with a Content-Disposition filename, optionally
// dropping the header or the content length.
func fileServer(t *testing.T, filename string, body []byte, withDisposition, withLength bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if withDisposition {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		}
		if withLength {
			w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
			w.Write(body)
			return
		}
		// Flush before writing so the response goes out chunked.
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write(body)
	}))
}

func TestTransfer(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		body := bytes.Repeat([]byte("x"), 4096)
		server := fileServer(t, "model.safetensors", body, true, true)
		defer server.Close()

		destDir := filepath.Join(t.TempDir(), "models", "Lora")
		engine := newTransferEngine(server.Client(), nil)
		file := ResourceFile{Name: "model.safetensors", SizeKB: f64Ptr(4)}

		outcome, err := engine.transfer(context.Background(), server.URL, destDir, file, nil)
		if err != nil {
			t.Fatalf("transfer() error = %v", err)
		}
		if outcome.Status != TransferCompleted {
			t.Errorf("status = %v, want completed", outcome.Status)
		}
		if outcome.BytesWritten != int64(len(body)) {
			t.Errorf("bytesWritten = %d, want %d", outcome.BytesWritten, len(body))
		}

		want := filepath.Join(destDir, "model.safetensors")
		if outcome.Path != want {
			t.Errorf("path = %q, want %q", outcome.Path, want)
		}
		written, err := os.ReadFile(want)
		if err != nil {
			t.Fatalf("reading written file: %v", err)
		}
		if !bytes.Equal(written, body) {
			t.Error("written bytes differ from response body")
		}
	})

	t.Run("skip when size matches", func(t *testing.T) {
		body := bytes.Repeat([]byte("y"), 2048)
		server := fileServer(t, "model.safetensors", body, true, true)
		defer server.Close()

		destDir := t.TempDir()
		existing := filepath.Join(destDir, "model.safetensors")
		if err := os.WriteFile(existing, bytes.Repeat([]byte("z"), 2048), 0644); err != nil {
			t.Fatal(err)
		}
		info, _ := os.Stat(existing)
		mtime := info.ModTime()

		engine := newTransferEngine(server.Client(), nil)
		file := ResourceFile{Name: "model.safetensors", SizeKB: f64Ptr(2)} // 2 KB == 2048 bytes

		outcome, err := engine.transfer(context.Background(), server.URL, destDir, file, nil)
		if err != nil {
			t.Fatalf("transfer() error = %v", err)
		}
		if outcome.Status != TransferSkipped {
			t.Errorf("status = %v, want skipped", outcome.Status)
		}
		if outcome.BytesWritten != 0 {
			t.Errorf("bytesWritten = %d, want 0", outcome.BytesWritten)
		}

		after, _ := os.Stat(existing)
		if !after.ModTime().Equal(mtime) || after.Size() != 2048 {
			t.Error("existing file was modified by a skipped transfer")
		}
	})

	t.Run("overwrite when size differs", func(t *testing.T) {
		body := bytes.Repeat([]byte("y"), 2048)
		server := fileServer(t, "model.safetensors", body, true, true)
		defer server.Close()

		destDir := t.TempDir()
		existing := filepath.Join(destDir, "model.safetensors")
		if err := os.WriteFile(existing, []byte("stale"), 0644); err != nil {
			t.Fatal(err)
		}

		engine := newTransferEngine(server.Client(), nil)
		file := ResourceFile{Name: "model.safetensors", SizeKB: f64Ptr(2)}

		outcome, err := engine.transfer(context.Background(), server.URL, destDir, file, nil)
		if err != nil {
			t.Fatalf("transfer() error = %v", err)
		}
		if outcome.Status != TransferCompleted {
			t.Errorf("status = %v, want completed", outcome.Status)
		}
		written, _ := os.ReadFile(existing)
		if !bytes.Equal(written, body) {
			t.Error("existing file was not overwritten")
		}
	})

	t.Run("proceeds without expected size", func(t *testing.T) {
		body := []byte("fresh")
		server := fileServer(t, "model.bin", body, true, true)
		defer server.Close()

		destDir := t.TempDir()
		existing := filepath.Join(destDir, "model.bin")
		if err := os.WriteFile(existing, []byte("fresh"), 0644); err != nil {
			t.Fatal(err)
		}

		engine := newTransferEngine(server.Client(), nil)
		// No SizeKB: the existence check cannot run, so the transfer overwrites.
		outcome, err := engine.transfer(context.Background(), server.URL, destDir, ResourceFile{Name: "model.bin"}, nil)
		if err != nil {
			t.Fatalf("transfer() error = %v", err)
		}
		if outcome.Status != TransferCompleted {
			t.Errorf("status = %v, want completed", outcome.Status)
		}
	})

	t.Run("missing content-disposition", func(t *testing.T) {
		server := fileServer(t, "", []byte("data"), false, true)
		defer server.Close()

		engine := newTransferEngine(server.Client(), nil)
		_, err := engine.transfer(context.Background(), server.URL, t.TempDir(), ResourceFile{}, nil)
		if !errors.Is(err, ErrFilenameUnavailable) {
			t.Errorf("expected ErrFilenameUnavailable, got %v", err)
		}
	})

	t.Run("missing content-length", func(t *testing.T) {
		server := fileServer(t, "model.bin", []byte("data"), true, false)
		defer server.Close()

		engine := newTransferEngine(server.Client(), nil)
		_, err := engine.transfer(context.Background(), server.URL, t.TempDir(), ResourceFile{}, nil)
		if !errors.Is(err, ErrContentLengthUnavailable) {
			t.Errorf("expected ErrContentLengthUnavailable, got %v", err)
		}
	})

	t.Run("non-200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		engine := newTransferEngine(server.Client(), nil)
		_, err := engine.transfer(context.Background(), server.URL, t.TempDir(), ResourceFile{}, nil)
		if !errors.Is(err, ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})

	t.Run("connection failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		engine := newTransferEngine(http.DefaultClient, nil)
		_, err := engine.transfer(context.Background(), server.URL, t.TempDir(), ResourceFile{}, nil)
		if !errors.Is(err, ErrFetchFailed) {
			t.Errorf("expected ErrFetchFailed, got %v", err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		// The server declares more bytes than it sends, so the body read
		// fails mid-stream. The partial file stays on disk.
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", `attachment; filename="cut.safetensors"`)
			w.Header().Set("Content-Length", "4096")
			w.Write(bytes.Repeat([]byte("t"), 16))
		}))
		defer server.Close()

		destDir := t.TempDir()
		engine := newTransferEngine(server.Client(), nil)
		outcome, err := engine.transfer(context.Background(), server.URL, destDir, ResourceFile{Name: "cut.safetensors"}, nil)
		if !errors.Is(err, ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
		if outcome.Status != TransferFailed {
			t.Errorf("status = %v, want failed", outcome.Status)
		}
		if _, serr := os.Stat(filepath.Join(destDir, "cut.safetensors")); serr != nil {
			t.Errorf("expected partial file on disk: %v", serr)
		}
	})

	t.Run("progress reaches total and never exceeds it", func(t *testing.T) {
		body := bytes.Repeat([]byte("p"), 100*1024)
		server := fileServer(t, "big.safetensors", body, true, true)
		defer server.Close()

		tracker := NewTracker()
		var last int64
		var violated bool
		tracker.OnUpdate(func(u ProgressUpdate) {
			if u.Downloaded < last {
				violated = true
			}
			if u.Total > 0 && u.Downloaded > u.Total {
				violated = true
			}
			last = u.Downloaded
		})

		engine := newTransferEngine(server.Client(), nil)
		track := tracker.Register("big.safetensors")
		if _, err := engine.transfer(context.Background(), server.URL, t.TempDir(), ResourceFile{Name: "big.safetensors"}, track); err != nil {
			t.Fatalf("transfer() error = %v", err)
		}

		if violated {
			t.Error("progress counter regressed or exceeded total")
		}
		downloaded, total := track.Progress()
		if total != int64(len(body)) {
			t.Errorf("total = %d, want %d", total, len(body))
		}
		if downloaded != total {
			t.Errorf("downloaded = %d, want %d", downloaded, total)
		}
	})
}

func TestFilenameFromDisposition(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{`attachment; filename="model.safetensors"`, "model.safetensors", false},
		{`attachment; filename=model.safetensors`, "model.safetensors", false},
		{`filename="a b.ckpt"`, "a b.ckpt", false},
		{``, "", true},
		{`attachment`, "", true},
	}

	for _, tc := range cases {
		got, err := filenameFromDisposition(tc.header)
		if tc.wantErr {
			if !errors.Is(err, ErrFilenameUnavailable) {
				t.Errorf("filenameFromDisposition(%q) error = %v, want ErrFilenameUnavailable", tc.header, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("filenameFromDisposition(%q) error = %v", tc.header, err)
			continue
		}
		if got != tc.want {
			t.Errorf("filenameFromDisposition(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
