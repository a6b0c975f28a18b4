package stock

import "sort"

// SeverityOf grades a line against its alert threshold. A threshold of zero
// disables alerting; at or below the threshold is low; at or below half the
// threshold (integer division) is critical.
func SeverityOf(l *Line) Severity {
	if l.AlertThreshold <= 0 {
		return SeverityNormal
	}
	if l.Quantity <= l.AlertThreshold/2 {
		return SeverityCritical
	}
	if l.Quantity <= l.AlertThreshold {
		return SeverityLow
	}
	return SeverityNormal
}

var severityRank = map[Severity]int{
	SeverityNormal:   0,
	SeverityLow:      1,
	SeverityCritical: 2,
}

// buildAlerts derives the alert list from a consistent snapshot of lines:
// one entry per line at low or critical severity, most severe first, ties
// broken by product name. The result is never nil.
func buildAlerts(lines []Line) []Alert {
	alerts := make([]Alert, 0)
	for i := range lines {
		sev := SeverityOf(&lines[i])
		if sev == SeverityNormal {
			continue
		}
		alerts = append(alerts, Alert{
			ProductID:   lines[i].ProductID,
			ProductName: lines[i].ProductName,
			Quantity:    lines[i].Quantity,
			Threshold:   lines[i].AlertThreshold,
			Severity:    sev,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if severityRank[alerts[i].Severity] != severityRank[alerts[j].Severity] {
			return severityRank[alerts[i].Severity] > severityRank[alerts[j].Severity]
		}
		return alerts[i].ProductName < alerts[j].ProductName
	})

	return alerts
}
