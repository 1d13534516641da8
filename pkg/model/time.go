package model

import "time"

// DayKey is the MMDD key used for quota bucketing of invite dates.
func DayKey(t time.Time) string {
	return t.Format("0102")
}

// FullDayKey is the YYYYMMDD form used by session descriptors.
func FullDayKey(t time.Time) string {
	return t.Format("20060102")
}

func Year(t time.Time) string {
	return t.Format("2006")
}
