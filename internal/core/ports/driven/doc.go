// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Loader: Extracts pages of text from a source document
//   - LoaderRegistry: Selects the appropriate loader by format
//   - PostProcessor: Processes document content into chunks
//   - VectorIndexStore: Creates, persists, and loads vector indices
//   - ChunkStore: Record-key to chunk persistence
//   - ConfigStore: Application configuration
//   - EmbeddingService: Generates vector embeddings
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text generation. Without it, queries return retrieved
//     chunks but no generated answer.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
