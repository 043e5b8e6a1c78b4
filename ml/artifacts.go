package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ModelFileName   = "risk_model.json"
	EncoderFileName = "label_encoder.json"
)

// ArtifactPaths pairs the model file with the label encoder it was trained
// with. A class index is only meaningful together with its encoder.
type ArtifactPaths struct {
	ModelPath   string
	EncoderPath string
}

func ArtifactPathsIn(dir string) ArtifactPaths {
	return ArtifactPaths{
		ModelPath:   filepath.Join(dir, ModelFileName),
		EncoderPath: filepath.Join(dir, EncoderFileName),
	}
}

// SaveArtifacts writes both artifacts, replacing earlier versions. Each file
// is swapped in with a rename so readers never observe a partial write.
func SaveArtifacts(paths ArtifactPaths, model MLModel, encoder *LabelEncoder) error {
	if model.Classes() > encoder.Len() {
		return fmt.Errorf("model has %d classes but encoder only %d", model.Classes(), encoder.Len())
	}
	for _, path := range []string{paths.ModelPath, paths.EncoderPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}
	if err := model.Save(paths.ModelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := encoder.Save(paths.EncoderPath); err != nil {
		return fmt.Errorf("save label encoder: %w", err)
	}
	return nil
}

// LoadArtifacts loads the model and encoder together and checks that they
// agree on the number of classes.
func LoadArtifacts(modelType string, paths ArtifactPaths) (MLModel, *LabelEncoder, error) {
	model, err := LoadModel(modelType, paths.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	encoder := NewLabelEncoder()
	if err := encoder.Load(paths.EncoderPath); err != nil {
		return nil, nil, fmt.Errorf("load label encoder from %s: %w", paths.EncoderPath, err)
	}
	if model.Classes() > encoder.Len() {
		return nil, nil, fmt.Errorf("model has %d classes but encoder only %d", model.Classes(), encoder.Len())
	}
	return model, encoder, nil
}

func saveJSON(path string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, payload, 0o644)
}

func loadJSON(path string, value interface{}) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, value); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFileAtomic(path string, payload []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return cleanup(fmt.Errorf("replace artifact: %w", err))
	}
	return nil
}
