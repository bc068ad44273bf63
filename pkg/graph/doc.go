// Package graph defines the movement graph types for horologe.
// The movement graph is an immutable DAG of the pendulum, escapement,
// going and power trains and their stages, grouped under a movement.
package graph
