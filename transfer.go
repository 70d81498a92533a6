package civit

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// transferChunkSize is the read buffer size for streaming file bodies.
const transferChunkSize = 32 * 1024

// TransferStatus is the terminal state of one transfer.
type TransferStatus int

const (
	// TransferFailed indicates the transfer aborted with an error.
	TransferFailed TransferStatus = iota

	// TransferCompleted indicates the file was fully written to disk.
	TransferCompleted

	// TransferSkipped indicates an equivalent file already existed at the
	// destination and no bytes were written. A user-visible no-op, not a
	// silent success.
	TransferSkipped
)

// String returns a short label for the status.
func (s TransferStatus) String() string {
	switch s {
	case TransferCompleted:
		return "completed"
	case TransferSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// TransferOutcome is the terminal report of one transfer.
type TransferOutcome struct {
	// Status is the terminal state.
	Status TransferStatus

	// Path is the final on-disk path. Empty when the transfer failed
	// before the filename was known.
	Path string

	// BytesWritten is the bytes streamed to disk. Zero for skips.
	BytesWritten int64
}

// transferEngine streams selected files from the file host to disk.
type transferEngine struct {
	// httpClient is shared with the catalog client; safe for concurrent use.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newTransferEngine creates a transfer engine over the shared HTTP client.
func newTransferEngine(client HTTPClient, logger Logger) *transferEngine {
	return &transferEngine{httpClient: client, logger: logger}
}

// transfer streams url into destDir. The on-disk filename comes from the
// response's Content-Disposition header, never from the URL. When a file
// of the expected size already exists at the destination the transfer is
// skipped. The track, when non-nil, receives total and per-chunk updates.
//
// A write or read failure leaves the partially written file in place;
// there is no rollback.
func (e *transferEngine) transfer(ctx context.Context, url, destDir string, file ResourceFile, track *Track) (TransferOutcome, error) {
	failed := TransferOutcome{Status: TransferFailed}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failed, fmt.Errorf("creating request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return failed, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed, fmt.Errorf("%w: %s: status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	filename, err := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return failed, err
	}
	finalPath := filepath.Join(destDir, filename)

	// Size-based existence check. Without an expected size the check
	// cannot be performed and the transfer proceeds, overwriting.
	if file.SizeKB != nil {
		if info, err := os.Stat(finalPath); err == nil {
			existingKB := float64(info.Size()) / 1024.0
			if existingKB == *file.SizeKB {
				if e.logger != nil {
					e.logger.Info("file already exists, skipping", "path", finalPath, "sizeKB", *file.SizeKB)
				}
				return TransferOutcome{Status: TransferSkipped, Path: finalPath}, nil
			}
		}
	}

	total := resp.ContentLength
	if total < 0 {
		return failed, fmt.Errorf("%w: %s", ErrContentLengthUnavailable, url)
	}
	if track != nil {
		track.SetTotal(total)
	}

	if err := ensureDir(destDir); err != nil {
		return failed, err
	}

	out, err := os.Create(finalPath)
	if err != nil {
		return failed, fmt.Errorf("%w: creating %s: %v", ErrIO, finalPath, err)
	}

	written, err := e.stream(resp.Body, out, total, track)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: closing %s: %v", ErrIO, finalPath, cerr)
	}
	if err != nil {
		return TransferOutcome{Status: TransferFailed, Path: finalPath, BytesWritten: written}, err
	}

	if e.logger != nil {
		e.logger.Info("transfer completed", "path", finalPath, "bytes", written)
	}
	return TransferOutcome{Status: TransferCompleted, Path: finalPath, BytesWritten: written}, nil
}

// stream copies body to out in chunks, advancing the track after every
// write. The downloaded counter is clamped to the total.
func (e *transferEngine) stream(body io.Reader, out io.Writer, total int64, track *Track) (int64, error) {
	buf := make([]byte, transferChunkSize)
	var written int64

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("%w: %v", ErrIO, werr)
			}
			written += int64(n)
			if written > total {
				written = total
			}
			if track != nil {
				track.Add(int64(n))
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: reading body: %v", ErrIO, rerr)
		}
	}
}

// filenameFromDisposition extracts the filename parameter from a
// Content-Disposition header. Absence of the header or of the parameter
// is fatal; the engine never derives a name from the URL.
func filenameFromDisposition(header string) (string, error) {
	if header == "" {
		return "", ErrFilenameUnavailable
	}

	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name, nil
		}
	}

	// Lenient fallback for headers the strict parser rejects: take the
	// substring after "filename=" and strip quotes.
	if idx := strings.Index(header, "filename="); idx != -1 {
		name := strings.Trim(header[idx+len("filename="):], `"`)
		if name != "" {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: header %q", ErrFilenameUnavailable, header)
}
