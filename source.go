package chutoro

import "github.com/liliang-cn/chutoro/pkg/distance"

// Source is the distance source contract callers implement to feed
// items into Run (§6.1). Re-exported from pkg/distance so both root
// callers and internal components share one definition without a cycle.
type Source = distance.Source
