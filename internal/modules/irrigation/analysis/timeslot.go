package analysis

import (
	"fmt"
	"time"
)

// TimeSlot is a coarse label for the part of the day an observation falls in.
type TimeSlot string

const (
	EarlyMorning   TimeSlot = "Early Morning"
	Morning        TimeSlot = "Morning"
	EarlyAfternoon TimeSlot = "Early Afternoon"
	Afternoon      TimeSlot = "Afternoon"
	Evening        TimeSlot = "Evening"
)

// slotBounds lists each slot with its exclusive upper hour, in order.
var slotBounds = []struct {
	until int
	slot  TimeSlot
}{
	{until: 6, slot: EarlyMorning},
	{until: 12, slot: Morning},
	{until: 15, slot: EarlyAfternoon},
	{until: 18, slot: Afternoon},
	{until: 24, slot: Evening},
}

// ClassifyTimeSlot maps an hour of the day (0-23) to its TimeSlot.
func ClassifyTimeSlot(hour int) (TimeSlot, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("hour %d out of range (allowed: 0-23)", hour)
	}
	for _, b := range slotBounds {
		if hour < b.until {
			return b.slot, nil
		}
	}
	return Evening, nil
}

// TimeSlotOf classifies the hour component of t.
func TimeSlotOf(t time.Time) TimeSlot {
	slot, _ := ClassifyTimeSlot(t.Hour())
	return slot
}
