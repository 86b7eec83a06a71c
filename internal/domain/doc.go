// Package domain models the Village Climate Risk Index (Indeks Risiko Iklim
// Desa, IRID) and the assessments built from it.
//
// # Index
//
// IRID combines four normalized risk factors:
//
//	IRID = (exposure + sensitivity - adaptive_capacity) * hazard
//
// Exposure is how much of the village is in contact with climate stress,
// sensitivity how strongly that contact turns into harm, adaptive capacity
// the ability to absorb it (it enters negatively), and hazard the
// probability or intensity of the event itself. Each factor is expected in
// [0, 1], but the formula is total over the reals: nothing here clamps the
// inputs or the result. Bounds are enforced by the hosts (HTTP API, Kafka
// ingress, CLI flags) before values reach the scorer. See [InputBounds].
//
// # Bands
//
// The index is classified into an ordinal severity band with lower-inclusive
// thresholds:
//
//	index >= 0.6         High   (Kerentanan Tinggi)
//	0.4 <= index < 0.6   Medium (Kerentanan Sedang)
//	index < 0.4          Low    (Kerentanan Rendah)
//
// Negative and >1 indexes classify normally; NaN falls through to Low.
//
// # Adjusted hazard
//
// The flash-flood case study raises the hazard term from two environmental
// drivers before rescoring with the same formula and thresholds:
//
//	hazard' = hazard + (rainfall_mm / 500) * 0.3 + (deforestation_pct / 100) * 0.2
//
// rainfall_mm is daily rainfall in [0, 500] and deforestation_pct a
// percentage in [0, 100]. The adjusted hazard is not clamped back to [0, 1].
//
// # Reference village
//
// Desa Lembur Sawah (-7.0501, 106.7224) is the default profile. Its
// factors score to an index of about -0.000236, i.e. Low. The source
// dashboards labelled the same defaults "Kerentanan Sedang"; the label is
// always derived from the formula here.
//
// # ID Generation
//
// Assessment IDs are UUIDv5 hashes of village|lat|lon|factors|drivers, so
// replaying the same request yields the same ID and downstream consumers can
// upsert idempotently. See [generateID].
package domain
