package civit

import "errors"

// Sentinel errors for catalog and transfer operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrFetchFailed indicates a network or HTTP failure reaching the
	// catalog or the file host.
	ErrFetchFailed = errors.New("civit: fetch failed")

	// ErrParseFailed indicates a response body did not match the expected shape.
	ErrParseFailed = errors.New("civit: invalid catalog response")

	// ErrNoFilesAvailable indicates a model version carries no downloadable files.
	ErrNoFilesAvailable = errors.New("civit: no files available")

	// ErrVersionNotFound indicates the requested version does not exist on the model.
	ErrVersionNotFound = errors.New("civit: version not found")

	// ErrCategoryResolution indicates the owning model's category could not
	// be resolved for a version.
	ErrCategoryResolution = errors.New("civit: category resolution failed")

	// ErrPathResolution indicates the destination directory could not be
	// normalized to an absolute path.
	ErrPathResolution = errors.New("civit: path resolution failed")

	// ErrFilenameUnavailable indicates the file host response carried no
	// usable Content-Disposition filename.
	ErrFilenameUnavailable = errors.New("civit: filename unavailable")

	// ErrContentLengthUnavailable indicates the file host response carried
	// no Content-Length. Chunked responses without a length are unsupported.
	ErrContentLengthUnavailable = errors.New("civit: content length unavailable")

	// ErrIO indicates a local file create, write, or body read failure.
	ErrIO = errors.New("civit: file i/o failed")
)
