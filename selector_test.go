package civit

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }

func TestSelectFile(t *testing.T) {
	pref := Preference{Format: FormatSafeTensor, ResourceType: TypePrunedModel}

	t.Run("primary tier exact match", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 1, Name: "a.ckpt", Type: "Model", Format: strPtr("PickleTensor")},
			{ID: 2, Name: "b.safetensors", Type: "Pruned Model", Format: strPtr("SafeTensor")},
			{ID: 3, Name: "c.safetensors", Type: "Pruned Model", Format: strPtr("SafeTensor")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 2 {
			t.Errorf("selected file ID = %d, want 2 (first primary match)", got.ID)
		}
	})

	t.Run("alt tier format-only match", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 1, Name: "a.zip", Type: "TrainingData", Format: strPtr("Other")},
			{ID: 2, Name: "b.safetensors", Type: "Model", Format: strPtr("SafeTensor")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 2 {
			t.Errorf("selected file ID = %d, want 2 (alt match on format)", got.ID)
		}
	})

	t.Run("alt tier type-only match", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 1, Name: "a.zip", Type: "TrainingData", Format: strPtr("Other")},
			{ID: 2, Name: "b.ckpt", Type: "Pruned Model", Format: strPtr("PickleTensor")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 2 {
			t.Errorf("selected file ID = %d, want 2 (alt match on type)", got.ID)
		}
	})

	t.Run("alt never shadowed by later primary", func(t *testing.T) {
		// The first file with both axes matching must win even when an
		// earlier file matches only one axis.
		files := []ResourceFile{
			{ID: 1, Name: "a.safetensors", Type: "Model", Format: strPtr("SafeTensor")},
			{ID: 2, Name: "b.safetensors", Type: "Pruned Model", Format: strPtr("SafeTensor")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 2 {
			t.Errorf("selected file ID = %d, want 2 (primary beats earlier alt)", got.ID)
		}
	})

	t.Run("fallback tier", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 1, Name: "a.zip", Type: "Archive", Format: strPtr("Other")},
			{ID: 2, Name: "b.zip", Type: "Archive", Format: strPtr("Other")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 1 {
			t.Errorf("selected file ID = %d, want 1 (first file fallback)", got.ID)
		}
	})

	t.Run("absent format excluded from tiers", func(t *testing.T) {
		// File 1 would be a primary match on type, but carries no format
		// on the wire, so only the fallback tier may pick it.
		files := []ResourceFile{
			{ID: 1, Name: "a.safetensors", Type: "Pruned Model", Format: nil},
			{ID: 2, Name: "b.ckpt", Type: "Pruned Model", Format: strPtr("PickleTensor")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 2 {
			t.Errorf("selected file ID = %d, want 2 (formatless file skips tiers)", got.ID)
		}
	})

	t.Run("absent format still eligible for fallback", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 1, Name: "a.bin", Type: "Archive", Format: nil},
			{ID: 2, Name: "b.bin", Type: "Archive", Format: nil},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 1 {
			t.Errorf("selected file ID = %d, want 1", got.ID)
		}
	})

	t.Run("returns a member of the input", func(t *testing.T) {
		files := []ResourceFile{
			{ID: 7, Name: "only.bin", Type: "weird", Format: strPtr("weirder")},
		}

		got, err := SelectFile(files, pref)
		if err != nil {
			t.Fatalf("SelectFile() error = %v", err)
		}
		if got.ID != 7 {
			t.Errorf("selected file ID = %d, want 7", got.ID)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := SelectFile(nil, pref)
		if !errors.Is(err, ErrNoFilesAvailable) {
			t.Fatalf("SelectFile(nil) error = %v, want ErrNoFilesAvailable", err)
		}

		_, err = SelectFile([]ResourceFile{}, pref)
		if !errors.Is(err, ErrNoFilesAvailable) {
			t.Fatalf("SelectFile(empty) error = %v, want ErrNoFilesAvailable", err)
		}
	})
}
