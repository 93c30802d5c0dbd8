// Package workflow provides a small step-graph executor shared by the
// retrieval and analysis pipelines. Steps are pure state transformations
// connected by static or conditional edges; faults are captured into the
// state and diverted to a failure step rather than propagated.
package workflow
