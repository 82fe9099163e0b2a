// Package store defines the record store collaborator used by the dispatcher
// to read training and candidate records, together with an in-memory
// implementation backed by dataset files.
//
// A store answers two things: which records match a Criteria (property
// existence and identifier membership) and whether its content changed since
// a previous read, through an opaque fingerprint.
package store
