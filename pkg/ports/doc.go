/*
Package ports defines the driven ports (interfaces) the persistence layer is written against.

A BlobStore holds encoded state under a string key. The typed cache in pkg/cache
encodes values before handing them to a BlobStore, so adapters only move bytes.

# Adapters

  - memory: small bounded-size keyed store, process local.
  - file: one file per key in a private directory.
  - redis: keys under a prefix on a Redis server.

Every adapter is verified with RunBlobStoreContract.
*/
package ports
