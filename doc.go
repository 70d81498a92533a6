// Package civit downloads generative-model artifacts from the Civitai
// catalog into a locally organized directory tree.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Client type - Applications create a Client
//     with New and use DownloadModels / DownloadVersion to fetch model
//     metadata and stream file variants to disk.
//
//  2. Embeddable CLI via NewCommand - A complete cobra command tree with
//     "download" and "info" subcommands, used by cmd/civitdl.
//
// # File selection
//
// Each model version carries several file variants. SelectFile picks one
// in three tiers: an exact match on the preferred format and resource
// type, then a partial match on either, then the first file regardless.
//
// # Destinations
//
// The destination directory derives from the owning model's category:
// checkpoints under models/Stable-diffusion, LoRA under models/Lora, and
// so on below the configured base directory. Files that already exist at
// their destination with the expected size are skipped.
//
// # Thread Safety
//
// A Client is safe for concurrent use. Batch downloads fan out under a
// bounded concurrency limit; every (model, version) unit of work succeeds
// or fails independently and reports its own TransferResult.
package civit
