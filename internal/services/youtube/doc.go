// Package youtube fetches caption transcripts for resolved episodes.
//
// The client loads the public watch page, extracts the embedded
// ytInitialPlayerResponse JSON, selects a caption track (configured
// languages first, manual tracks over auto-generated ones), downloads the
// timedtext XML, and joins the segment texts with single spaces.
//
// No API key is required; the transcript stage falls back to show notes
// when YouTube declines to serve captions.
package youtube
