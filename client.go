package civit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Client drives the whole download pipeline: catalog lookups, file
// selection, destination resolution, and transfers. Safe for concurrent
// use; all shared state (HTTP client, progress tracker) is read-only or
// internally synchronized.
type Client struct {
	cfg     Config
	pref    Preference
	catalog *catalogClient
	engine  *transferEngine
	logger  Logger
}

// TransferResult is the terminal report for one (model, version) unit of
// work. Units fail independently; a failed unit never cancels siblings.
type TransferResult struct {
	// ModelID is the requested model identifier.
	ModelID string

	// VersionID identifies the version, when known.
	VersionID string

	// Filename is the selected file's catalog name, when selection succeeded.
	Filename string

	// Outcome is the transfer's terminal state.
	Outcome TransferOutcome

	// Err is non-nil when the unit failed at any stage.
	Err error
}

// New creates a Client from configuration. BaseDirectory is required.
// Unless WithHTTPClient is given, the Client builds an *http.Client whose
// cookie jar carries the session token for the catalog host.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseDirectory == "" {
		return nil, errors.New("civit: BaseDirectory is required")
	}

	ccfg := newClientConfig()
	for _, opt := range opts {
		opt(ccfg)
	}

	if ccfg.httpClient == nil {
		hc, err := newSessionClient(ccfg.baseURL, cfg.Token)
		if err != nil {
			return nil, err
		}
		ccfg.httpClient = hc
	}

	return &Client{
		cfg:     cfg,
		pref:    cfg.Preference(),
		catalog: newCatalogClient(ccfg.baseURL, ccfg.httpClient, ccfg.logger),
		engine:  newTransferEngine(ccfg.httpClient, ccfg.logger),
		logger:  ccfg.logger,
	}, nil
}

// GetModel fetches a full Model record by ID.
func (c *Client) GetModel(ctx context.Context, modelID string) (Model, error) {
	return c.catalog.GetModel(ctx, modelID)
}

// GetModelVersion fetches a ModelVersion record by ID.
func (c *Client) GetModelVersion(ctx context.Context, versionID string) (ModelVersion, error) {
	return c.catalog.GetModelVersion(ctx, versionID)
}

// DownloadModels processes a batch of requested model IDs. Metadata for
// all IDs is fetched first, fanned out under the concurrency bound; the
// batch proceeds to transfers only once every fetch has settled. For each
// model, either its first (most recent) version or all versions are
// transferred, again under the bound.
//
// Every unit of work yields its own TransferResult; failures never cancel
// siblings. The returned slice covers every requested ID, including those
// whose metadata fetch failed.
func (c *Client) DownloadModels(ctx context.Context, ids []string, allVersions bool, opts ...DownloadOption) []TransferResult {
	dcfg := newDownloadConfig()
	for _, opt := range opts {
		opt(dcfg)
	}
	limit := c.cfg.concurrency()
	if dcfg.concurrency > 0 {
		limit = dcfg.concurrency
	}

	var mu sync.Mutex
	var results []TransferResult
	report := func(r TransferResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	// Phase 1: fetch all model records.
	type fetched struct {
		id    string
		model Model
	}
	var models []fetched

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			model, err := c.catalog.GetModel(ctx, id)
			if err != nil {
				if c.logger != nil {
					c.logger.Error("failed to fetch model", "modelId", id, "error", err)
				}
				report(TransferResult{ModelID: id, Err: err})
				return nil
			}
			mu.Lock()
			models = append(models, fetched{id: id, model: model})
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	// Phase 2: transfer the selected versions of every fetched model.
	g = new(errgroup.Group)
	g.SetLimit(limit)
	for _, f := range models {
		f := f
		versions := f.model.ModelVersions
		if len(versions) == 0 {
			report(TransferResult{ModelID: f.id, Err: fmt.Errorf("model %s has no versions: %w", f.id, ErrVersionNotFound)})
			continue
		}
		if !allVersions {
			versions = versions[:1]
		}
		for _, v := range versions {
			v := v
			g.Go(func() error {
				report(c.processVersion(ctx, f.id, v, dcfg))
				return nil
			})
		}
	}
	g.Wait()

	return results
}

// DownloadVersion performs exactly one transfer: the version of modelID
// whose ID equals versionID. The version is located by linear search with
// string equality on the ID. A missing version fails the unit with
// ErrVersionNotFound.
func (c *Client) DownloadVersion(ctx context.Context, modelID, versionID string, opts ...DownloadOption) TransferResult {
	dcfg := newDownloadConfig()
	for _, opt := range opts {
		opt(dcfg)
	}

	model, err := c.catalog.GetModel(ctx, modelID)
	if err != nil {
		return TransferResult{ModelID: modelID, VersionID: versionID, Err: err}
	}

	for _, v := range model.ModelVersions {
		if strconv.FormatInt(v.ID, 10) == versionID {
			return c.processVersion(ctx, modelID, v, dcfg)
		}
	}

	return TransferResult{
		ModelID:   modelID,
		VersionID: versionID,
		Err:       fmt.Errorf("model %s: override %s: %w", modelID, versionID, ErrVersionNotFound),
	}
}

// processVersion runs one (version → file) flow: resolve the destination
// from the owning model's category, select the file, then transfer it.
// Stages run strictly sequentially; a failure at any stage aborts only
// this flow.
func (c *Client) processVersion(ctx context.Context, modelID string, v ModelVersion, dcfg *downloadConfig) TransferResult {
	versionID := strconv.FormatInt(v.ID, 10)
	res := TransferResult{ModelID: modelID, VersionID: versionID}

	cat, err := c.resolveVersionCategory(ctx, v)
	if err != nil {
		res.Err = fmt.Errorf("model %s version %s: resolving category: %w", modelID, versionID, err)
		return res
	}

	destDir, err := ResolveDir(c.cfg.BaseDirectory, cat)
	if err != nil {
		res.Err = fmt.Errorf("model %s version %s: %w", modelID, versionID, err)
		return res
	}

	file, err := SelectFile(v.Files, c.pref)
	if err != nil {
		res.Err = fmt.Errorf("model %s version %s: %w", modelID, versionID, err)
		return res
	}
	res.Filename = file.Name

	if c.logger != nil {
		c.logger.Debug("starting transfer",
			"modelId", modelID, "versionId", versionID,
			"file", file.Name, "category", cat.String(), "dir", destDir)
	}

	// The label is qualified with the version ID so that versions whose
	// selected files share a filename keep independent counters.
	var track *Track
	if dcfg.tracker != nil {
		track = dcfg.tracker.Register(versionID + "/" + file.Name)
	}

	outcome, err := c.engine.transfer(ctx, file.DownloadURL, destDir, file, track)
	res.Outcome = outcome
	if err != nil {
		res.Err = fmt.Errorf("model %s version %s: transferring %s: %w", modelID, versionID, file.Name, err)
	}
	return res
}

// resolveVersionCategory learns the owning model's category for a
// version. The version payloads embedded in a Model record do not carry
// the model summary, so this issues a direct version lookup; its payload
// embeds the summary with the category label.
func (c *Client) resolveVersionCategory(ctx context.Context, v ModelVersion) (ModelCategory, error) {
	if v.Model != nil {
		return ParseModelCategory(v.Model.Type), nil
	}

	fetched, err := c.catalog.GetModelVersion(ctx, strconv.FormatInt(v.ID, 10))
	if err != nil {
		return CategoryUnknown, fmt.Errorf("%w: %v", ErrCategoryResolution, err)
	}
	if fetched.Model == nil {
		return CategoryUnknown, fmt.Errorf("%w: version payload has no model summary", ErrCategoryResolution)
	}
	return ParseModelCategory(fetched.Model.Type), nil
}
