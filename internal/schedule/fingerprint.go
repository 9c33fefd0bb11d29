package schedule

import (
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a BLAKE3 digest of an ordered task list. It covers
// each task's ID, dependency and completion flag, so two schedules share a
// fingerprint only when they list the same tasks in the same order with the
// same edges.
func Fingerprint(order []Task) string {
	buf := make([]byte, 0, len(order)*16)
	for _, t := range order {
		buf = strconv.AppendInt(buf, t.ID, 10)
		buf = append(buf, ':')
		if dep, ok := t.DependsOn(); ok {
			buf = strconv.AppendInt(buf, dep, 10)
		}
		buf = append(buf, ':')
		buf = strconv.AppendBool(buf, t.IsCompleted)
		buf = append(buf, ';')
	}

	hasher := blake3.New()
	_, _ = hasher.Write(buf) //nolint:errcheck // hash writes never fail
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
