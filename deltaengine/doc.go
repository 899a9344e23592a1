// Package deltaengine decides, for a target object being written into a
// pack, whether to store it as a full object or as a delta against some
// earlier-stored base, and if so which base and what delta program.
//
// Three collaborators compose into an Engine: a CandidateFinder proposes
// candidate base ids, a Compressor turns a (base, target) byte pair into a
// wire delta program (or declines), and a DecisionStrategy picks the best
// of the resulting deltas, or none.
package deltaengine
