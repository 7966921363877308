// Package viewport maps between screen space and layout space and turns
// pointer input into pan, zoom and node activation.
//
// A [Controller] owns a single [Transform]: screen = layout*K + (X, Y). It
// never modifies the layout it was built from. Pan/zoom input arrives as
// [Event] values; events carrying a sequence number that is not newer than
// the last one applied are dropped, so a host that redelivers input does not
// double-apply it. Scale is clamped to [Options.MinScale, Options.MaxScale].
//
// Activation inverts the transform and hit-tests node cards. A double-tap
// on a card activates that person and never zooms; a double-tap on empty
// space zooms only when [Options.DoubleTapZoom] is set.
//
// A Controller is not safe for concurrent use. Hosts that need one per
// request (the HTTP server) build a fresh controller each time.
package viewport
