// ingest.go
//
// Database classification intake and owner-manager review notifications
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of dbreview.
// dbreview is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// dbreview is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with dbreview.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/localnerve/dbreview/internal/database"
	"github.com/localnerve/dbreview/internal/metrics"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/localnerve/dbreview/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrInvalidEnvelope means the payload is not a JSON array or object at all
	ErrInvalidEnvelope = errors.New("invalid batch envelope")
	// ErrBatchRejected means the storage engine refused the batch and nothing was committed
	ErrBatchRejected = errors.New("batch rejected by storage")
)

// rows per INSERT; 3 bound columns per row stays under the SQL Server 2100 parameter cap
const recordInsertBatchSize = 500

// IngestResult is the outcome of one batch upload
type IngestResult struct {
	Success  bool                    `json:"success"`
	Total    int                     `json:"total"`
	Accepted []models.DatabaseRecord `json:"valid_entries"`
	Rejected []datatypes.JSON        `json:"invalid_entries"`
	Detail   string                  `json:"detail,omitempty"`
}

// ParseBatch splits the envelope into raw entries. A single object is
// treated as a batch of one.
func ParseBatch(payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, ErrInvalidEnvelope
	}

	var batch types.RawBatch
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	return batch.Entries(), nil
}

// PartitionBatch validates every entry. Rejected entries are returned exactly as received.
func PartitionBatch(entries []json.RawMessage) ([]RawRecord, []datatypes.JSON) {
	accepted := make([]RawRecord, 0, len(entries))
	rejected := make([]datatypes.JSON, 0)

	for _, entry := range entries {
		raw, err := decodeRawRecord(entry)
		if err != nil || !ValidateDatabaseRecord(raw) {
			rejected = append(rejected, datatypes.JSON(entry))
			continue
		}
		accepted = append(accepted, raw)
	}

	return accepted, rejected
}

// IngestDatabaseRecords parses, validates, normalizes and persists a JSON batch
func IngestDatabaseRecords(ctx context.Context, db *gorm.DB, payload []byte) (*IngestResult, error) {
	entries, err := ParseBatch(payload)
	if err != nil {
		return nil, err
	}
	return IngestBatch(ctx, db, entries, NewNormalizer())
}

// IngestBatch persists every structurally valid entry in a single transaction.
// A storage failure rolls back the whole batch, including entries that validated.
func IngestBatch(ctx context.Context, db *gorm.DB, entries []json.RawMessage, normalizer *Normalizer) (*IngestResult, error) {
	acceptedRaw, rejected := PartitionBatch(entries)
	metrics.RecordsRejected.Add(float64(len(rejected)))

	records := make([]models.DatabaseRecord, 0, len(acceptedRaw))
	for _, raw := range acceptedRaw {
		records = append(records, normalizer.Normalize(raw))
	}

	if len(records) > 0 {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(&records, recordInsertBatchSize).Error
		})
		if err != nil {
			metrics.BatchesFailed.Inc()
			detail := database.ConstraintDetail(err)
			zap.L().Warn("database record batch rolled back",
				zap.Int("accepted", len(records)),
				zap.Int("rejected", len(rejected)),
				zap.String("detail", detail),
				zap.Error(err),
			)

			result := &IngestResult{
				Success:  false,
				Total:    0,
				Accepted: []models.DatabaseRecord{},
				Rejected: rejected,
				Detail:   detail,
			}
			if database.IsConstraintViolation(err) {
				return result, fmt.Errorf("%w: %s", ErrBatchRejected, detail)
			}
			return result, fmt.Errorf("failed to persist batch: %w", err)
		}
	}

	metrics.RecordsAccepted.Add(float64(len(records)))
	zap.L().Info("database record batch ingested",
		zap.Int("accepted", len(records)),
		zap.Int("rejected", len(rejected)),
	)

	return &IngestResult{
		Success:  true,
		Total:    len(records),
		Accepted: records,
		Rejected: rejected,
	}, nil
}

func decodeRawRecord(entry json.RawMessage) (RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()

	var raw RawRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
