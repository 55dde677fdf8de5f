// Package core contains the authorization domain contracts, entities, and
// orchestration logic: interaction prompts, the consent ledger, and the
// claim and resource hooks the protocol engine consumes. Storage and
// transport adapters depend on this package; core depends on neither.
package core
