// Package snapshot loads prebuilt partition indexes from JSON snapshot
// files. Index building itself happens offline in the ingestion
// pipeline; this adapter only consumes its output.
//
// A snapshot directory holds one file per partition, named
// <partition-id>.json:
//
//	{
//	  "partition_id": "crane",
//	  "documents": [
//	    {"id": "d1", "source": "...", "section": "...",
//	     "content": "...", "embedding": [0.1, ...]}
//	  ]
//	}
//
// The embedding field is optional; partitions whose documents carry no
// embeddings serve lexical-only retrieval.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hardhat-labs/girder-cli/internal/adapters/driven/index/memory"
	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// partitionFile is the on-disk snapshot format for one partition.
type partitionFile struct {
	PartitionID string         `json:"partition_id"`
	Documents   []documentSpec `json:"documents"`
}

// documentSpec is one document entry in a snapshot.
type documentSpec struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Section   string    `json:"section"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Load reads every *.json partition snapshot in dir into a memory
// partition store. A malformed file fails the whole load: serving a
// silently partial corpus is worse than failing at startup.
func Load(dir string) (*memory.PartitionStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir %s: %w", dir, err)
	}

	store := memory.NewPartitionStore()
	loaded := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		pf, err := loadPartitionFile(path)
		if err != nil {
			return nil, err
		}

		docs := 0
		for _, spec := range pf.Documents {
			if spec.ID == "" || spec.Content == "" {
				logger.Warn("Snapshot %s: skipping document with empty id or content", entry.Name())
				continue
			}
			store.AddDocument(pf.PartitionID, spec.ID, domain.Document{
				PartitionID: pf.PartitionID,
				Source:      spec.Source,
				Section:     spec.Section,
				Content:     spec.Content,
			}, spec.Embedding)
			docs++
		}

		logger.Debug("Snapshot partition %q: %d documents", pf.PartitionID, docs)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no partition snapshots in %s", dir)
	}

	logger.Info("Loaded %d partition snapshots from %s", loaded, dir)
	return store, nil
}

// loadPartitionFile parses one snapshot file.
func loadPartitionFile(path string) (*partitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var pf partitionFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	if pf.PartitionID == "" {
		// Fall back to the file name so hand-assembled snapshots work.
		pf.PartitionID = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	return &pf, nil
}
