// Package errors provides classified errors for docgallery.
//
// Every failure that can abort a build is expressed as a ClassifiedError with a
// category (config, authoring, gallery, ...) and a severity. Authoring errors
// additionally carry "document" and "line" context so the message names the
// offending marker. There is no partial-publish mode: any error or fatal
// severity aborts the whole build.
package errors
