// Package loaders provides implementations of the Loader interface
// for various document formats. Each loader knows how to extract page
// text from files with specific extensions.
//
// Loaders are registered with the Registry at startup.
package loaders
