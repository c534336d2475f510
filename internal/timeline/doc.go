// Package timeline turns expedition records into a per-peak timeline of
// fatality magnitudes.
//
// The pipeline runs five stages in order:
//
//  1. Reconcile parses raw records into facts, resolving dates and dropping
//     claimed, disputed or memberless expeditions.
//  2. Aggregate sums facts per (peak, bucket).
//  3. Densify fills the full peak x bucket grid with zero rows.
//  4. ApplyFlags marks high death rate, high success rate and safe seasons.
//  5. Normalize maps ln(deaths) onto a fixed magnitude range.
//
// Bucket granularity (day, month, year, year-season) and peak selection
// (TopN, Fixed, All, Combined) are independent and chosen through Config.
// Every stage is a pure function; Pipeline adds logging, tracing and
// metrics around them.
package timeline
