// Package objfile implements encoding and decoding of loose object files.
// Storages write objects with Writer; Reader decodes them back.
package objfile
