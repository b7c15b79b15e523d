// Package view draws store state on a terminal with tcell.
//
// A Panel subscribes to a store's committed changes and redraws itself after
// each one. Run drives the tcell event loop until the user quits or the
// context ends.
package view
