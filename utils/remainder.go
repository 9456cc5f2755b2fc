package utils

import "fmt"

// DailyCronSpec builds a five-field cron spec that fires once a day at hour:minute.
func DailyCronSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
