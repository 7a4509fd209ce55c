// Package eligibility decides which files under an operation root are
// processed.
//
// A Filter prunes mediasweep's own output subtrees, directories carrying the
// skip marker, hidden entries and any configured glob exclusions, then
// admits files whose extension is on the operation's allow-list. Walk visits
// matches in lexical order; Collect returns them sorted by relative path.
package eligibility
