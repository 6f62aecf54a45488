package accounts

import "time"

func nsDuration(ns int64) time.Duration {
	return time.Duration(ns)
}

func nsTime(ns int64) time.Time {
	return time.Unix(0, ns)
}
