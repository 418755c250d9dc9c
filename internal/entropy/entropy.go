// Package entropy provides the deterministic digest and fresh-randomness
// primitives behind the draw. Everything here is a pure function of its
// inputs (NewSystemEntropy excepted, which is the one deliberately
// non-deterministic step); no ambient seeds or process state, so a draw can
// be recomputed from recorded values alone.
package entropy

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SeedVersionTag is mixed into every seed so a future algorithm revision can
// never be confused with results produced by this one.
const SeedVersionTag = "2.0-secure"

// derivationKey separates the winning-number PRF from any other use of the
// same seed material.
const derivationKey = "lottery-vrf-key"

// entropyBytes is the size of the fresh random value drawn at draw time.
const entropyBytes = 32

// ParticipationRecord is the normalized form of a participation used for
// digesting. Field order is the canonical serialization order; changing it
// changes every digest.
type ParticipationRecord struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Numbers   []int64 `json:"numbers"`
	Cost      int64   `json:"cost"`
	CreatedAt string  `json:"createdAt"`
}

// NewParticipationRecord normalizes raw participation fields: numbers sorted
// ascending, timestamp in RFC3339Nano UTC.
func NewParticipationRecord(id, userID string, numbers []int64, cost int64, createdAt time.Time) ParticipationRecord {
	sorted := make([]int64, len(numbers))
	copy(sorted, numbers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return ParticipationRecord{
		ID:        id,
		UserID:    userID,
		Numbers:   sorted,
		Cost:      cost,
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	}
}

// ParticipationDigest hashes the full participation set of a round. Records
// are sorted by ID so the digest is independent of retrieval order; any
// change to any record (numbers, cost, existence) changes the digest.
func ParticipationDigest(records []ParticipationRecord) (string, error) {
	sorted := make([]ParticipationRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("marshal participation records: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// productContext binds a seed to the product and digest schema it was
// computed under, preventing seed reuse across rounds or schema revisions.
type productContext struct {
	ProductID     string `json:"productId"`
	SchemaVersion string `json:"schemaVersion"`
}

// ProductDigest hashes the round's product context.
func ProductDigest(productID, schemaVersion string) (string, error) {
	data, err := json.Marshal(productContext{ProductID: productID, SchemaVersion: schemaVersion})
	if err != nil {
		return "", fmt.Errorf("marshal product context: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewSystemEntropy returns 32 bytes of cryptographically secure randomness as
// a hex string. This is the only draw input not determinable before the round
// closes. On failure it returns an error and no value: the draw must fail
// closed rather than fall back to a weaker source.
func NewSystemEntropy() (string, error) {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read system entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// seedMaterial is the canonical serialization hashed into the final seed.
type seedMaterial struct {
	RoundID           string `json:"roundId"`
	ProductHash       string `json:"productHash"`
	ParticipationHash string `json:"participationHash"`
	SystemEntropy     string `json:"systemEntropy"`
	Version           string `json:"version"`
}

// ComposeSeed hashes the participation digest, product digest, fresh entropy,
// and version tag into the final seed.
func ComposeSeed(roundID, participationHash, productHash, systemEntropy string) (string, error) {
	data, err := json.Marshal(seedMaterial{
		RoundID:           roundID,
		ProductHash:       productHash,
		ParticipationHash: participationHash,
		SystemEntropy:     systemEntropy,
		Version:           SeedVersionTag,
	})
	if err != nil {
		return "", fmt.Errorf("marshal seed material: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WinningOffset derives the winning offset in [0, totalShares) from the final
// seed. The seed keys an HMAC-SHA256 PRF, the PRF output is hashed with the
// round ID, and the first 8 bytes are taken as an unsigned integer reduced
// modulo totalShares. 64 bits of input against share counts in the thousands
// keeps modulo bias negligible.
func WinningOffset(seed, roundID string, totalShares int64) (int64, error) {
	if totalShares <= 0 {
		return 0, fmt.Errorf("total shares must be positive, got %d", totalShares)
	}
	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(derivationKey))
	prk := mac.Sum(nil)

	h := sha256.New()
	h.Write(prk)
	h.Write([]byte(roundID))
	digest := h.Sum(nil)

	r := binary.BigEndian.Uint64(digest[:8])
	return int64(r % uint64(totalShares)), nil
}
