// Package scheduler fires the daily lunch phases at their configured local
// wall-clock times: survey open, cancel cutoff, settlement and the
// low-balance sweep. Rest days are skipped and a phase whose time already
// passed when the process starts is caught up once immediately.
package scheduler
