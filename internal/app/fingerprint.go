package app

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"sort"

	"mock-exam-service/internal/domain"
)

// Fingerprint computes a stable content hash of a question bank. Subjects
// and questions are hashed in bank order (order is part of the content);
// option maps are hashed in sorted key order so construction order never
// changes the result. Fields are length-prefixed to keep the byte stream
// unambiguous.
func Fingerprint(bank domain.QuestionBank) string {
	h := sha256.New()
	for _, subject := range bank.Subjects {
		hashField(h, subject.Name)
		for _, q := range subject.Questions {
			hashField(h, q.Text)
			keys := make([]string, 0, len(q.Options))
			for k := range q.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				hashField(h, k)
				hashField(h, q.Options[k])
			}
			hashField(h, q.Answer)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func hashField(h hash.Hash, s string) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(s)))
	h.Write(length[:])
	io.WriteString(h, s)
}

// EnsureIntegrity compares the bank's fingerprint with the stored baseline
// and resets persisted session state when they differ (or no baseline
// exists). A stale attempt must never be scored against a changed bank.
// Returns whether a reset happened.
func EnsureIntegrity(ctx context.Context, store SessionStore, bank domain.QuestionBank, limitSeconds int) (bool, error) {
	current := Fingerprint(bank)
	stored, err := store.LoadFingerprint(ctx)
	if err == nil && stored == current {
		return false, nil
	}
	if err := store.Reset(ctx, domain.NewSessionState(limitSeconds), current); err != nil {
		return false, err
	}
	return true, nil
}
