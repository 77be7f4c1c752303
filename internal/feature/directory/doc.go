// Package directory classifies the entries of a directory listing buffer.
// Each line ending in a slash names a subdirectory and is classified as
// format.ClassDirectory.
package directory
