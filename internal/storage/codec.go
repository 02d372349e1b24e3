package storage

import (
	"encoding/json"
	"errors"

	"github.com/zooba/esec/internal/model"
)

const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGenerationStats(stats model.GenerationStats) ([]byte, error) {
	return json.Marshal(stats)
}

func DecodeGenerationStats(data []byte) (model.GenerationStats, error) {
	var stats model.GenerationStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return model.GenerationStats{}, err
	}
	return stats, nil
}

func EncodeBest(best model.BestIndividual) ([]byte, error) {
	return json.Marshal(best)
}

func DecodeBest(data []byte) (model.BestIndividual, error) {
	var best model.BestIndividual
	if err := json.Unmarshal(data, &best); err != nil {
		return model.BestIndividual{}, err
	}
	return best, nil
}

// CheckVersion guards rows written by a newer schema.
func CheckVersion(schemaVersion int) error {
	if schemaVersion != CurrentSchemaVersion {
		return ErrVersionMismatch
	}
	return nil
}
