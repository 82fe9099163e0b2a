// Package objective binds a regression model to the workflow types it
// motivates. An objective declares the record properties it reads as model
// inputs and the response properties it learns, trains its model on records
// where the responses are known and scores records where they are not.
//
// ModelObjective is the standard implementation; plug-ins customise it
// through a Featurizer, a Target extractor and a Scorer.
package objective
