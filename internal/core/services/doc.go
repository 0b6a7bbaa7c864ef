// Package services wires driven ports into the operations the front ends call:
// ingesting sources, retrieving chunks, composing answers, browsing stored
// documents and running ingestion on a schedule.
package services
