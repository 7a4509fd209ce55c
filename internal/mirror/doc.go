// Package mirror maps source files onto a parallel output tree.
//
// MapPath is pure: the output path depends only on the source root, the
// file, the destination root and the extension rule. Resolver keeps a run's
// output paths unique when replacing extensions folds two sources onto one
// name.
package mirror
