// Package language normalizes the values users pass for language tags.
//
// Codes and English names resolve to ISO 639-2 through golang.org/x/text so
// container tags stay consistent no matter which form was typed.
package language
