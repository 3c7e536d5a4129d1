package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// InquiryStatus is one of the ten values an operator can record against an inquiry.
// Any status may follow any other; there is no transition graph.
type InquiryStatus string

const (
	StatusInquiryValid         InquiryStatus = "inquiry_valid"
	StatusInquiryCalled        InquiryStatus = "inquiry_called"
	StatusStudentSeekingInfo   InquiryStatus = "student_seeking_info"
	StatusInterestedNotDecided InquiryStatus = "interested_not_decided"
	StatusNotInterested        InquiryStatus = "not_interested"
	StatusScheduledFreeSession InquiryStatus = "scheduled_free_session"
	StatusAttendedFreeSession  InquiryStatus = "attended_free_session"
	StatusConvertedEnrolled    InquiryStatus = "converted_enrolled"
	StatusWantsToSpeak         InquiryStatus = "wants_to_speak"
	StatusUnreachable          InquiryStatus = "unreachable"

	// StatusNone is the derived value for an inquiry with an empty history. It is never stored.
	StatusNone InquiryStatus = "no_status"
)

var inquiryStatuses = []InquiryStatus{
	StatusInquiryValid,
	StatusInquiryCalled,
	StatusStudentSeekingInfo,
	StatusInterestedNotDecided,
	StatusNotInterested,
	StatusScheduledFreeSession,
	StatusAttendedFreeSession,
	StatusConvertedEnrolled,
	StatusWantsToSpeak,
	StatusUnreachable,
}

var statusLabels = map[InquiryStatus]string{
	StatusInquiryValid:         "Inquiry Valid",
	StatusInquiryCalled:        "Inquiry Called",
	StatusStudentSeekingInfo:   "Student Seeking Info",
	StatusInterestedNotDecided: "Interested, Not Decided",
	StatusNotInterested:        "Not Interested",
	StatusScheduledFreeSession: "Scheduled Free Session",
	StatusAttendedFreeSession:  "Attended Free Session",
	StatusConvertedEnrolled:    "Converted / Enrolled",
	StatusWantsToSpeak:         "Wants to Speak",
	StatusUnreachable:          "Unreachable",
	StatusNone:                 "No Status",
}

// AllInquiryStatuses returns the recordable statuses in display order.
func AllInquiryStatuses() []InquiryStatus {
	out := make([]InquiryStatus, len(inquiryStatuses))
	copy(out, inquiryStatuses)
	return out
}

// Valid reports whether s can be recorded in the history log. StatusNone cannot.
func (s InquiryStatus) Valid() bool {
	for _, candidate := range inquiryStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Label returns the human readable name used by dashboards.
func (s InquiryStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s InquiryStatus) order() int {
	for i, candidate := range inquiryStatuses {
		if s == candidate {
			return i
		}
	}
	return len(inquiryStatuses)
}

// StatusHistoryEntry is one immutable row of an inquiry's status log.
type StatusHistoryEntry struct {
	ID        int64         `db:"id" json:"id"`
	InquiryID int64         `db:"inquiry_id" json:"inquiry_id"`
	Status    InquiryStatus `db:"status" json:"status"`
	Comments  *string       `db:"comments" json:"comments,omitempty"`
	UpdatedBy string        `db:"updated_by" json:"updated_by"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// NotInterestedComment renders the reasons block the dashboard uses for not_interested updates.
func NotInterestedComment(reasons []string) string {
	var b strings.Builder
	b.WriteString("Not Interested\nReason:")
	for _, reason := range reasons {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			continue
		}
		b.WriteString("\n• ")
		b.WriteString(reason)
	}
	return b.String()
}

// StatusCount is a raw grouped count keyed by status.
type StatusCount struct {
	Status InquiryStatus `db:"status" json:"status"`
	Count  int           `db:"count" json:"count"`
}

// StatusBucket is one slice of the current-status distribution.
type StatusBucket struct {
	Status     InquiryStatus `json:"status"`
	Label      string        `json:"label"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
}

// BuildStatusDistribution converts current-status counts into percentage buckets.
// The denominator is the sum of all counts, so the no_status bucket must be included by the caller.
func BuildStatusDistribution(counts []StatusCount) []StatusBucket {
	total := 0
	merged := make(map[InquiryStatus]int, len(counts))
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		status := c.Status
		if status == "" {
			status = StatusNone
		}
		merged[status] += c.Count
		total += c.Count
	}
	buckets := make([]StatusBucket, 0, len(merged))
	if total == 0 {
		return buckets
	}
	for status, count := range merged {
		buckets = append(buckets, StatusBucket{
			Status:     status,
			Label:      status.Label(),
			Count:      count,
			Percentage: float64(count) / float64(total) * 100,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count == buckets[j].Count {
			return buckets[i].Status.order() < buckets[j].Status.order()
		}
		return buckets[i].Count > buckets[j].Count
	})
	return buckets
}

// UpdaterCount is the number of history entries recorded by one operator.
type UpdaterCount struct {
	UpdatedBy string `db:"updated_by" json:"updated_by"`
	Count     int    `db:"count" json:"count"`
}

// BurnCapacityPerInquiry is the nominal number of status updates budgeted per inquiry.
// It is deliberately not tied to the number of statuses.
const BurnCapacityPerInquiry = 3

// BurnStats expresses how much of the nominal status-update capacity has been used.
type BurnStats struct {
	TotalInquiries   int     `json:"total_inquiries"`
	TotalBurns       int     `json:"total_burns"`
	TotalUnburns     int     `json:"total_unburns"`
	MaxPossibleBurns int     `json:"max_possible_burns"`
	BurnPercentage   float64 `json:"burn_percentage"`
	UnburnPercentage float64 `json:"unburn_percentage"`
}

// ComputeBurnStats derives the burn/unburn metric from the two raw counts.
// Unburns floor at zero, so BurnPercentage can exceed 100 while UnburnPercentage stays 0.
func ComputeBurnStats(totalInquiries, totalBurns int) BurnStats {
	if totalInquiries < 0 {
		totalInquiries = 0
	}
	if totalBurns < 0 {
		totalBurns = 0
	}
	maxBurns := totalInquiries * BurnCapacityPerInquiry
	unburns := maxBurns - totalBurns
	if unburns < 0 {
		unburns = 0
	}
	stats := BurnStats{
		TotalInquiries:   totalInquiries,
		TotalBurns:       totalBurns,
		TotalUnburns:     unburns,
		MaxPossibleBurns: maxBurns,
	}
	if maxBurns > 0 {
		stats.BurnPercentage = round2(float64(totalBurns) / float64(maxBurns) * 100)
		stats.UnburnPercentage = round2(float64(unburns) / float64(maxBurns) * 100)
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
