// Package stats keeps aggregated kernel counters (ticks, context switches,
// idle selections, process lifecycle). Scheduling counters are fed by a
// scheduler hook; lifecycle counters by the kernel itself.
package stats
