// Package connectivity provides the online/offline signal that decides
// whether submissions are sent or queued.
//
// Switch is a manually driven signal, the equivalent of the browser's
// online/offline events. Monitor drives a Switch from a Prober run on a
// schedule; HealthProber probes a gRPC health endpoint.
//
// Listeners are called only when the state changes, in subscription order,
// outside the state lock. Deliveries are serialized, so listeners must not
// call Set themselves.
package connectivity
