// Package frame serializes layout frames for external consumers.
//
// [RenderJSON] is the data interchange format of cratetree: the web viewer
// polls it, and scripts can post-process it without parsing SVG. The default
// document holds the settled view only; [WithJSONTransitions] adds the raw
// change-sets so a client can run its own enter/update/exit animation.
package frame
