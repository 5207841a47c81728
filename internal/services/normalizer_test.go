package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"
	"time"

	"github.com/localnerve/dbreview/internal/models"
	"github.com/stretchr/testify/assert"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func fixedClock(sec int64) *Normalizer {
	return &Normalizer{Now: func() time.Time { return time.Unix(sec, 0) }}
}

func TestNormalizeSynthesizesEmptyName(t *testing.T) {
	n := fixedClock(1700000000)

	record := n.Normalize(mustDecode(t, `{"db_name": "", "owner_id": 5, "classification": 1}`))

	sum := sha256.Sum256([]byte("1700000000;5;1"))
	assert.Equal(t, hex.EncodeToString(sum[:]), record.Name)
	assert.Regexp(t, hex64, record.Name)
	assert.Equal(t, int64(5), record.OwnerID)
	assert.Equal(t, models.Low, record.Classification)
}

func TestNormalizeSynthesizesMissingName(t *testing.T) {
	record := fixedClock(1).Normalize(RawRecord{"owner_id": int64(9), "classification": int64(3)})
	assert.Equal(t, SyntheticName(1, 9, models.High), record.Name)
}

func TestNormalizeDefaults(t *testing.T) {
	record := NewNormalizer().Normalize(RawRecord{"db_name": "x", "owner_id": nil, "classification": nil})

	assert.Equal(t, "x", record.Name)
	assert.Equal(t, int64(0), record.OwnerID)
	assert.Equal(t, models.Unclassified, record.Classification)
}

func TestNormalizeKeepsGivenName(t *testing.T) {
	record := fixedClock(1).Normalize(mustDecode(t, `{"db_name": "Acme_db", "owner_id": 3000, "classification": 2}`))

	assert.Equal(t, models.DatabaseRecord{
		Name:           "Acme_db",
		OwnerID:        3000,
		Classification: models.Medium,
	}, record)
}

func TestSyntheticNameDependsOnContext(t *testing.T) {
	a := SyntheticName(100, 5, models.Low)
	assert.Equal(t, a, SyntheticName(100, 5, models.Low))
	assert.NotEqual(t, a, SyntheticName(101, 5, models.Low))
	assert.NotEqual(t, a, SyntheticName(100, 6, models.Low))
	assert.NotEqual(t, a, SyntheticName(100, 5, models.High))
}

func TestNormalizeSyntheticNamesDistinctWithinBatch(t *testing.T) {
	n := fixedClock(1700000000)
	raw := `{"db_name": "", "owner_id": 5, "classification": 1}`

	first := n.Normalize(mustDecode(t, raw))
	second := n.Normalize(mustDecode(t, raw))
	other := n.Normalize(mustDecode(t, `{"db_name": "", "owner_id": 6, "classification": 1}`))

	assert.Equal(t, SyntheticName(1700000000, 5, models.Low), first.Name)
	assert.Equal(t, SyntheticName(1700000001, 5, models.Low), second.Name)
	assert.Equal(t, SyntheticName(1700000000, 6, models.Low), other.Name)
	assert.Regexp(t, hex64, second.Name)

	// a fresh normalizer starts over
	assert.Equal(t, first.Name, fixedClock(1700000000).Normalize(mustDecode(t, raw)).Name)
}
