package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"stellar-feh/internal/common"
	"stellar-feh/internal/forest"
)

const versionsFile = "versions.json"

// ModelInfo is the metadata sidecar kept for every saved model, so shuffle/
// retrain iterations can be compared without reloading the blobs.
type ModelInfo struct {
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	NEstimators     int       `json:"n_estimators"`
	RandomState     int64     `json:"random_state"`
	TrainingSamples int       `json:"training_samples"`
}

// SaveModel serializes the model under <root>/models/ with the default slot
// name, creating the directory if needed and overwriting any previous blob.
func SaveModel(root string, model *forest.Regressor, samples int) error {
	dir := filepath.Join(root, common.ModelsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create models directory: %w", err)
	}

	data, err := model.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serialize model: %w", err)
	}
	path := filepath.Join(dir, common.DefaultModelName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	info := ModelInfo{
		Name:            common.DefaultModelName,
		CreatedAt:       time.Now(),
		NEstimators:     model.NEstimators,
		RandomState:     model.RandomState,
		TrainingSamples: samples,
	}
	if err := appendVersion(dir, info); err != nil {
		log.Warn().Err(err).Msg("failed to record model version")
	}

	fmt.Printf("Saved model in %s\n", filepath.Join(common.ModelsSubdir, common.DefaultModelName))
	return nil
}

// LoadModel reads the named model from <root>/models/. A missing directory or
// blob is a not-found error; a corrupt blob is a deserialization error.
func LoadModel(root, name string) (*forest.Regressor, error) {
	dir := filepath.Join(root, common.ModelsSubdir)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("there is no such directory %s: %w", dir, err)
	}
	if name == "" {
		name = common.DefaultModelName
	}

	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	var model forest.Regressor
	if err := model.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return &model, nil
}

// ListVersions returns the recorded model metadata, newest first.
func ListVersions(root string) ([]ModelInfo, error) {
	path := filepath.Join(root, common.ModelsSubdir, versionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var versions []ModelInfo
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return versions, nil
}

func appendVersion(dir string, info ModelInfo) error {
	path := filepath.Join(dir, versionsFile)
	var versions []ModelInfo
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &versions); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	versions = append(versions, info)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})

	data, err := json.MarshalIndent(versions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
