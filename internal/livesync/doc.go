// Package livesync republishes files rewritten by the embedded editor.
//
// A Bridge maps absolute file paths to document IDs. It subscribes to the
// containing directory rather than the file, because editors commonly save by
// writing a temporary file and renaming it over the original; events for other
// files in the same directory are dropped by path lookup.
package livesync
