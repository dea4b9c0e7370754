// Package identity derives the call identifier that correlates the BEG,
// END and EXC lines of one invocation.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"
)

// CallID returns the hex MD5 digest of owner, method and the start time in
// fractional Unix seconds. Two calls collide only when all three match;
// that is a log-correlation nuisance, never a correctness problem.
func CallID(owner, method string, start time.Time) string {
	sum := md5.Sum([]byte(owner + method + Seconds(start)))
	return hex.EncodeToString(sum[:])
}

// Seconds renders t as fractional Unix seconds, e.g. "1771502400.25".
func Seconds(t time.Time) string {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
	return strconv.FormatFloat(secs, 'f', -1, 64)
}
