// Package domain models the seismic records shown by the viewer and the
// marker descriptors drawn for them.
//
// # Data Source
//
// Records come from the GeoSight REST API:
//
//	GET /earthquakes              → []EventSummary
//	GET /earthquakes/{id}         → EventDetail (404 when unknown)
//	GET /earthquake_clusters      → []ClusterSummary
//
// Event and detail records share one shape. The detail endpoint may carry
// more accurate or late-arriving values (depth revisions are common), which
// is why the viewer fetches it lazily when a popup is opened.
//
// Timestamps are emitted by the backend as "yyyy-MM-dd HH:mm:ss" without a
// zone. They are UTC by convention. RFC 3339 is accepted as well.
//
// # Markers
//
// Events are drawn as 24px diamonds colored by magnitude tier:
//
//	magnitude ≥ 5      magnitude-high
//	2 ≤ magnitude < 5  magnitude-medium
//	otherwise          magnitude-low
//
// Clusters are drawn as circles whose diameter is a four-tier piecewise-linear
// function of the cluster size, see [ClusterDiameter]:
//
//	     0 –  1000  →  20 –  40 px
//	  1000 –  5000  →  40 –  70 px
//	  5000 – 10000  →  70 – 100 px
//	 10000 – 50000  → 100 – 120 px, clamped at 120 beyond
//
// Records whose coordinates fall outside [-90,90] × [-180,180] are not drawn.
package domain
