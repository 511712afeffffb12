package orders

import (
	"strings"
	"time"
)

// deliveryRules map a craft-time fragment to delivery days, first match wins.
var deliveryRules = []struct {
	fragments []string
	days      int
}{
	{[]string{"60", "45-60"}, 75},
	{[]string{"45", "30-45"}, 60},
	{[]string{"30"}, 45},
	{[]string{"25", "20-35"}, 35},
	{[]string{"20"}, 30},
	{[]string{"15"}, 25},
	{[]string{"10"}, 20},
	{[]string{"7", "5-10"}, 14},
	{[]string{"fresh"}, 5},
}

const defaultDeliveryDays = 7

// DeliveryDays estimates how long an item with the given craft time takes to arrive.
func DeliveryDays(craftTime string) int {
	s := strings.ToLower(craftTime)
	for _, r := range deliveryRules {
		for _, f := range r.fragments {
			if strings.Contains(s, f) {
				return r.days
			}
		}
	}
	return defaultDeliveryDays
}

// EstimatedDelivery returns the expected delivery date counted from now.
func EstimatedDelivery(craftTime string, now time.Time) time.Time {
	return now.AddDate(0, 0, DeliveryDays(craftTime))
}

// FormatDeliveryDate renders a date the way customer messages show it.
func FormatDeliveryDate(t time.Time) string {
	return t.Format("2 January 2006")
}
