package domain

import (
	"math"
	"sort"
	"time"
)

// StatusCount - complaints per geography node and status
type StatusCount struct {
	NodeID   int64    `json:"node_id" db:"node_id"`
	NodeName string   `json:"node_name" db:"node_name"`
	Level    NodeKind `json:"level" db:"-"`
	Status   Status   `json:"status" db:"status"`
	Count    int64    `json:"count" db:"count"`
}

// DailyCount - complaints created per day and current status
type DailyCount struct {
	Day    time.Time `json:"day" db:"day"`
	Status Status    `json:"status" db:"status"`
	Count  int64     `json:"count" db:"count"`
}

// AnalyticsQuery - Villages nil means unrestricted
type AnalyticsQuery struct {
	Level    NodeKind
	Villages VillageSet
	From     *time.Time
	To       *time.Time
}

// ResolutionSLA - target time from filing to COMPLETED
const ResolutionSLA = 7 * 24 * time.Hour

// NodeResolution - complaint totals and mean time to first COMPLETED per geography node.
// AvgResolutionSeconds is nil when nothing in the node was completed.
type NodeResolution struct {
	NodeID               int64    `json:"node_id" db:"node_id"`
	NodeName             string   `json:"node_name" db:"node_name"`
	Level                NodeKind `json:"level" db:"-"`
	Total                int64    `json:"total" db:"total"`
	Resolved             int64    `json:"resolved" db:"resolved"`
	AvgResolutionSeconds *float64 `json:"avg_resolution_seconds" db:"avg_resolution_seconds"`
}

// Score - 0..100. Half rewards speed against ResolutionSLA, half the share of
// complaints completed. Nodes with nothing completed earn no speed points.
func (n NodeResolution) Score() float64 {
	if n.Total <= 0 {
		return 0
	}
	var speed float64
	if n.AvgResolutionSeconds != nil {
		sla := ResolutionSLA.Seconds()
		speed = math.Max(0, (sla-*n.AvgResolutionSeconds)/sla) * 50
	}
	rate := float64(n.Resolved) / float64(n.Total) * 50
	return speed + rate
}

// GeographyScore - ranking entry of the top-N analytics
type GeographyScore struct {
	NodeResolution
	Score float64 `json:"score"`
}

// RankGeographies orders by score, best first, ties by name, and keeps at most n
func RankGeographies(rows []NodeResolution, n int) []GeographyScore {
	out := make([]GeographyScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, GeographyScore{NodeResolution: r, Score: r.Score()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].NodeName != out[j].NodeName {
			return out[i].NodeName < out[j].NodeName
		}
		return out[i].NodeID < out[j].NodeID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
