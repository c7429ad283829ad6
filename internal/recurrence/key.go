package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey formats a date as zero-padded YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Key is the stable identifier of one instance, used for completion
// tracking: the date key plus the instance suffix. It is a pure function of
// its inputs; the same (date, suffix) always yields the same key.
func Key(date time.Time, suffix string) string {
	return DateKey(date) + suffix
}

// ItemID is the identifier shown to the UI for one instance of a rule.
func ItemID(ruleID int64, date time.Time, suffix string) string {
	return strconv.FormatInt(ruleID, 10) + "_" + Key(date, suffix)
}

// SplitItemID reverses ItemID into the rule id and the occurrence key.
func SplitItemID(id string) (int64, string, error) {
	ruleStr, key, ok := strings.Cut(id, "_")
	if !ok {
		return 0, "", fmt.Errorf("malformed item id: %q", id)
	}
	ruleID, err := strconv.ParseInt(ruleStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed item id: %q", id)
	}
	return ruleID, key, nil
}
