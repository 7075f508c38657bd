package matchmaking

import (
	"strings"
)

const (
	minAverage = 10
	maxAverage = 99
	bucketSize = 10
)

// Bucket returns the first average of the decade avg falls in: 10-19 ... 90-99.
// Averages outside 10-99 have no bucket and are never matched.
func Bucket(avg int) (int, bool) {
	if avg < minAverage || avg > maxAverage {
		return 0, false
	}
	return avg - avg%bucketSize, true
}

// Policy decides whether two queued players may be paired.
type Policy interface {
	Compatible(a, b Entry) bool
}

// BucketPolicy pairs players whose averages share a decade.
type BucketPolicy struct{}

func (BucketPolicy) Compatible(a, b Entry) bool {
	ba, ok := Bucket(a.Average)
	if !ok {
		return false
	}
	bb, ok := Bucket(b.Average)
	return ok && ba == bb
}

// ExactPolicy additionally requires equal averages.
type ExactPolicy struct{}

func (ExactPolicy) Compatible(a, b Entry) bool {
	return BucketPolicy{}.Compatible(a, b) && a.Average == b.Average
}

// PolicyFor maps MATCH_POLICY values to a policy. Anything unknown gets the bucket policy.
func PolicyFor(name string) Policy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "exact":
		return ExactPolicy{}
	default:
		return BucketPolicy{}
	}
}
