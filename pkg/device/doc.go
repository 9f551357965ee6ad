// Package device implements the device document model: features placed on
// layers, connections routed between component ports, and the segment
// router that turns waypoints into segments and splits them around
// obstacles.
//
// # Ownership
//
// A [Device] owns its layers, every feature on them and every connection.
// Connections reference the features that draw them by id only and reach
// them through a [Registry], which *Device implements. Parameter values
// are copied on every hand-off, so a connection and its features never
// share mutable state.
//
// # Routing
//
//	c.SetWaypoints(dev, []geometry.Point{geometry.Pt(0, 0), geometry.Pt(20, 0)})
//	c.InsertFeatureGap(dev, geometry.NewRect(8, -5, 4, 10))
//	// segments: [(0,0) (8,0)] [(20,0) (12,0)]
//
// Updates that fan out to features (SetParams, UpdateSegments and the
// operations built on them) are staged on copies and committed only when
// every feature accepted them.
package device
