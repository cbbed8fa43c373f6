// Package procedure puts every adaptive procedure behind one interface.
//
// A [Procedure] presents a stimulus, takes the response and reports the next
// stimulus until it is done. Procedures are built from a [Config] by a
// [Registry] that maps a kind name ("psi", "psi-guess-rate", "staircase",
// "interleaved", "pest", "maxlik") to a [Factory]. Configurations load from
// YAML files.
//
// A [Session] drives a procedure against a [Responder], the party that
// presents the stimulus and collects the listener's answer. It logs every
// trial and, for PSI procedures, saves the posterior to a psi.Store under the
// condition label so the next block can resume from it.
package procedure
