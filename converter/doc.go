// Package converter provides amqp.Converter implementations for common payload formats.
//
// Every converter in this package is safe for concurrent use once constructed.
package converter
