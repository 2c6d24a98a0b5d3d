package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test data for uploads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// UniqueName returns prefix followed by a time- and random-based suffix. Names use
// only lowercase letters, digits and underscores so they are valid as dataset,
// topic and bucket identifiers alike (bucket callers swap '_' for '-').
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d_%04d", prefix, time.Now().UnixNano()%1_000_000_000, rand.Intn(10000))
}

// UniqueBucketName returns a unique, DNS-compatible bucket name.
func UniqueBucketName(prefix string) string {
	return strings.ReplaceAll(UniqueName(prefix), "_", "-")
}
