// Package chardisplay shows control and invisible characters as
// intra-text adornments such as ^[ or <200b>.
//
// One Source is shared by every tagger requested for the same view. The
// Factory decides whether a request applies and obtains the shared Source
// from the tagger cache.
package chardisplay
