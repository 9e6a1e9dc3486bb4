// Package services implements the core application services that sit
// between the driving adapters (CLI) and the driven adapters
// (loaders, embedding providers, the vector index). Services contain
// the orchestration logic: ingestion, batched embedding, retrieval,
// answer assembly, and directory watching.
package services
