// Package model holds the types shared by the kernel subsystems: process
// ids and descriptors, IPC envelopes, wait results and ps entries.
//
// A process descriptor is owned by the process table and linked into at most
// one scheduler queue at a time; its Link records where.
package model
