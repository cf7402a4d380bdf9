// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for pdfqa.
//
// The vector index itself lives in package index as two flat files. This
// package holds the bookkeeping around it:
//
//   - DocumentRepository: a registry of ingested PDFs and which one is current
//   - Locker: mutual exclusion for index rebuilds
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces so callers never couple to a backend:
//
//	repo, err := badger.NewDocumentRepository(backend)  // storage.DocumentRepository
//	lock := redis.NewLocker(client, "pdfqa")            // storage.Locker
//
// # Implementations
//
//   - storage/badger: BadgerDB document registry, on disk or in memory
//   - storage/redis: Redis lock for several processes sharing one index directory
//   - LocalLocker: in-process lock used when no Redis address is configured
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/registry", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewDocumentRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := repo.CurrentDocument(ctx)
package storage
