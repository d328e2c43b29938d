// Package codec converts application values to and from the byte slices
// that the retention log and the key-value store persist. It ships two
// ValueCodec implementations - a UTF-8 string codec and an Avro resolving
// codec - and the sentinel errors callers match on with errors.Is.
package codec
