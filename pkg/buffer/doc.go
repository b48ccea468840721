// Package buffer provides Ring, a fixed-capacity circular buffer that keeps
// the newest items and evicts the oldest.
//
//	history, err := buffer.NewRing[HistoryPoint](30,
//		buffer.WithMetrics[HistoryPoint](registry, "history"))
//
//	history.Push(point)
//	points := history.Items() // oldest first
//
// Stats are always collected. WithMetrics additionally exports pushes,
// evictions and length as Prometheus series labelled by ring name.
package buffer
