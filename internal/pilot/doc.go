// Package pilot drives the perception analyzers frame by frame and turns
// their results into actuation commands.
//
// The Driver is a two-mode state machine:
//
//	Following  steer from the follow bands; when the debounced marker signal
//	           fires, publish Stop and switch to Adjusting
//	Adjusting  run the position adjuster each frame, publishing Adjust
//	           commands until it reports Centered, then publish Centered and
//	           switch back to Following
//
// Frames come from a Source and commands go to a Sink, so the package never
// touches a camera or a motor. Settle delays after marker sightings go
// through an injectable Sleep function so tests and offline replays can skip
// them.
package pilot
