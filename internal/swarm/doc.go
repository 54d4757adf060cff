// Package swarm owns the grid approximator: a regular grid of independent
// local affine models trained online, one sample at a time.
//
// Responsibilities: mapping domain points to cells (Grid), storing per-cell
// coefficients and momentum, prediction and the momentum gradient step.
// Key types: Grid, Swarm, Config.
//
// Dependency rule: swarm may depend on internal/config only. No I/O, no
// logging and no locking happens here; a Swarm is driven by a single caller.
package swarm
