// Package workdir resolves output and input files against the working
// directory given with --working-dir.
//
// Relative names are joined to the directory; absolute names are used as
// given. Writes create missing parent directories with 0750 and files with
// 0600, the same permissions the report writers use.
package workdir
