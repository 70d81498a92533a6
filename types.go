package civit

import "strings"

// Model is a full model record from the catalog.
// Versions are in the order the catalog returns them: most recent first.
type Model struct {
	// ID is the catalog's numeric model identifier.
	ID int64 `json:"id"`

	// Name is the display name of the model.
	Name string `json:"name"`

	// Description is optional free-form HTML.
	Description *string `json:"description,omitempty"`

	// Type is the free-text category label, e.g. "Checkpoint" or "LORA".
	// Resolve it with ParseModelCategory.
	Type string `json:"type"`

	NSFW *bool `json:"nsfw,omitempty"`
	POI  *bool `json:"poi,omitempty"`

	// Creator is the publishing account, when the catalog includes it.
	Creator *Creator `json:"creator,omitempty"`

	// Tags is free-form catalog metadata, unused by the download pipeline.
	Tags []string `json:"tags,omitempty"`

	// ModelVersions holds all versions, newest first.
	ModelVersions []ModelVersion `json:"modelVersions"`
}

// Creator identifies the account that published a model.
type Creator struct {
	Username *string `json:"username,omitempty"`
	Image    *string `json:"image,omitempty"`
}

// ModelSummary is the minimal owning-model record embedded in a
// ModelVersion payload. It exists to carry the category label.
type ModelSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	NSFW *bool  `json:"nsfw,omitempty"`
	POI  *bool  `json:"poi,omitempty"`
}

// ModelVersion is one version of a model, fetched either embedded in a
// Model or directly from the model-versions endpoint.
type ModelVersion struct {
	// ID is the catalog's numeric version identifier.
	ID int64 `json:"id"`

	// ModelID identifies the owning model.
	ModelID int64 `json:"modelId"`

	Name         string   `json:"name"`
	CreatedAt    *string  `json:"createdAt,omitempty"`
	UpdatedAt    *string  `json:"updatedAt,omitempty"`
	TrainedWords []string `json:"trainedWords,omitempty"`
	BaseModel    *string  `json:"baseModel,omitempty"`
	Description  *string  `json:"description,omitempty"`

	// Files lists the downloadable variants of this version.
	// Nil when the catalog omitted the list entirely.
	Files []ResourceFile `json:"files,omitempty"`

	// Images holds preview renders, unused by the download pipeline.
	Images []Image `json:"images,omitempty"`

	// Model is the minimal owning-model summary. Present only on direct
	// version lookups; used to learn the owning model's category.
	Model *ModelSummary `json:"model,omitempty"`

	// DownloadURL is the version-level legacy download endpoint.
	DownloadURL string `json:"downloadUrl"`
}

// ResourceFile is one downloadable artifact variant attached to a version.
type ResourceFile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// SizeKB is the file size in kilobytes. Nil when the catalog does not
	// know it; the existence check is skipped in that case.
	SizeKB *float64 `json:"sizeKB,omitempty"`

	// Type is the free-text resource role, e.g. "Pruned Model".
	Type string `json:"type"`

	// Format is the free-text serialization format, e.g. "SafeTensor".
	// Nil when the catalog omitted it; such files only qualify for
	// fallback selection.
	Format *string `json:"format,omitempty"`

	PickleScanResult  *string `json:"pickleScanResult,omitempty"`
	PickleScanMessage *string `json:"pickleScanMessage,omitempty"`
	VirusScanResult   *string `json:"virusScanResult,omitempty"`
	ScannedAt         *string `json:"scannedAt,omitempty"`
	Hashes            *Hashes `json:"hashes,omitempty"`

	// DownloadURL serves the file bytes.
	DownloadURL string `json:"downloadUrl"`
}

// Hashes holds the catalog's content hashes for a file.
type Hashes struct {
	AutoV1 *string `json:"AutoV1,omitempty"`
	AutoV2 *string `json:"AutoV2,omitempty"`
	SHA256 *string `json:"SHA256,omitempty"`
	CRC32  *string `json:"CRC32,omitempty"`
	BLAKE3 *string `json:"BLAKE3,omitempty"`
}

// Image is a preview render attached to a version.
type Image struct {
	URL    string  `json:"url"`
	NSFW   *string `json:"nsfw,omitempty"`
	Width  int64   `json:"width"`
	Height int64   `json:"height"`
	Hash   *string `json:"hash,omitempty"`
}

// ModelCategory is the closed structural class of a model. It governs the
// destination directory for downloads.
type ModelCategory int

const (
	CategoryUnknown ModelCategory = iota
	CategoryCheckpoint
	CategoryModel
	CategoryLora
	CategoryLoCon
	CategoryTextualInversion
	CategoryHypernetwork
	CategoryAestheticGradient
	CategoryPoses
	CategoryWildcards
)

// ParseModelCategory resolves a free-text category label into a
// ModelCategory. Unrecognized or empty text maps to CategoryUnknown
// rather than failing; callers branch on Unknown deliberately.
func ParseModelCategory(s string) ModelCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checkpoint":
		return CategoryCheckpoint
	case "model":
		return CategoryModel
	case "lora":
		return CategoryLora
	case "locon":
		return CategoryLoCon
	case "textualinversion":
		return CategoryTextualInversion
	case "hypernetwork":
		return CategoryHypernetwork
	case "aestheticgradient":
		return CategoryAestheticGradient
	case "poses":
		return CategoryPoses
	case "wildcards":
		return CategoryWildcards
	default:
		return CategoryUnknown
	}
}

// String returns the canonical label for the category.
func (c ModelCategory) String() string {
	switch c {
	case CategoryCheckpoint:
		return "Checkpoint"
	case CategoryModel:
		return "Model"
	case CategoryLora:
		return "Lora"
	case CategoryLoCon:
		return "LoCon"
	case CategoryTextualInversion:
		return "TextualInversion"
	case CategoryHypernetwork:
		return "Hypernetwork"
	case CategoryAestheticGradient:
		return "AestheticGradient"
	case CategoryPoses:
		return "Poses"
	case CategoryWildcards:
		return "Wildcards"
	default:
		return "Unknown"
	}
}

// ModelFormat is the closed serialization format of a file.
type ModelFormat int

const (
	FormatUnknown ModelFormat = iota
	FormatSafeTensor
	FormatPickleTensor
	FormatOther
)

// ParseModelFormat resolves free-text format labels.
// Unrecognized or empty text maps to FormatUnknown.
func ParseModelFormat(s string) ModelFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safetensor", "safetensors":
		return FormatSafeTensor
	case "pickletensor":
		return FormatPickleTensor
	case "other":
		return FormatOther
	default:
		return FormatUnknown
	}
}

// String returns the canonical label for the format.
func (f ModelFormat) String() string {
	switch f {
	case FormatSafeTensor:
		return "SafeTensor"
	case FormatPickleTensor:
		return "PickleTensor"
	case FormatOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// ResourceType is the closed role of a file within a version.
type ResourceType int

const (
	TypeUnknown ResourceType = iota
	TypeModel
	TypePrunedModel
	TypeTrainingData
	TypeArchive
	TypeConfig
)

// ParseResourceType resolves free-text resource role labels. The catalog
// uses both "Pruned Model" and "PrunedModel" spellings; spaces are
// ignored. Unrecognized or empty text maps to TypeUnknown.
func ParseResourceType(s string) ResourceType {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "model":
		return TypeModel
	case "prunedmodel":
		return TypePrunedModel
	case "trainingdata":
		return TypeTrainingData
	case "archive":
		return TypeArchive
	case "config":
		return TypeConfig
	default:
		return TypeUnknown
	}
}

// String returns the canonical label for the resource type.
func (t ResourceType) String() string {
	switch t {
	case TypeModel:
		return "Model"
	case TypePrunedModel:
		return "PrunedModel"
	case TypeTrainingData:
		return "TrainingData"
	case TypeArchive:
		return "Archive"
	case TypeConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// Preference is the caller's desired format and resource type for file
// selection. Shared read-only across all concurrent transfers.
type Preference struct {
	Format       ModelFormat
	ResourceType ResourceType
}

// DefaultPreference is used when configuration leaves either field unset.
var DefaultPreference = Preference{
	Format:       FormatSafeTensor,
	ResourceType: TypePrunedModel,
}

// normFormat returns the file's format normalized to a concrete enum
// value. Files with no format at all still normalize to FormatUnknown,
// but SelectFile excludes them from tiered matching.
func (f ResourceFile) normFormat() ModelFormat {
	if f.Format == nil {
		return FormatUnknown
	}
	return ParseModelFormat(*f.Format)
}

// normType returns the file's resource role normalized to a concrete enum value.
func (f ResourceFile) normType() ResourceType {
	return ParseResourceType(f.Type)
}

// Category resolves the model's free-text type label.
func (m Model) Category() ModelCategory {
	return ParseModelCategory(m.Type)
}
