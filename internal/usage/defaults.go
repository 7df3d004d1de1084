package usage

import (
	"strings"
	"time"
)

const usagePeriod = 7 * 24 * time.Hour

// Limits count interview sessions started within the rolling period.
func defaultUsageFor(userID string) Usage {
	u := Usage{
		Plan:     "Starter",
		Limit:    10,
		Used:     0,
		ResetsAt: time.Now().UTC().Add(usagePeriod),
	}
	if strings.HasPrefix(userID, "guest:") {
		u.Plan = "Guest"
		u.Limit = 3
	}
	return u
}
