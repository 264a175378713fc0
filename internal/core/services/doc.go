// Package services implements the driving port interfaces.
// Services contain the core business logic: the strategy registries,
// the schema coordinator, the ingestion pipeline and the retrieval
// facade. They orchestrate calls to driven ports (adapters).
package services
