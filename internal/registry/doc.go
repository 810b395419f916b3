// Package registry holds construction units per target class and realizes
// object graphs from manifests.
//
// # Core Types
//
//   - Registry: the units producing one target class, split into a builtin
//     partition (keys under ReservedPrefix) and a user partition, with an
//     optional default key.
//   - Directory: one Registry per class. Registries hold only a weak reference
//     back to their Directory.
//
// # Realization
//
// Make walks a manifest with graph.Evaluate. Every object spec found along the
// way is resolved against the Registry of its declared class, through the
// Directory when the class differs from the Registry that started the walk.
// Each unit is invoked exactly once, children before parents. Nothing is
// cached between calls.
//
// # Concurrency
//
// Lookups and Make read lock-free from sync.Map. Registration, merging and
// default-key changes take the owning Registry's or Directory's mutex. A
// mutation path never calls back into a method taking the same mutex.
package registry
