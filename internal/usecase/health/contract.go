package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks availability of an external model provider
// (embeddings or the relevance judge).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
