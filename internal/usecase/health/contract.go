package health

import "context"

// DBPinger checks cache database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RecordCounter reports the loaded corpus size.
type RecordCounter interface {
	RecordCount() int
}
