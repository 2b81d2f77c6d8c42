// Package resolver implements the stage that maps a feed episode to its
// YouTube video. Feeds that embed a video id satisfy the stage immediately;
// for everything else the episode page is fetched and its JSON-LD metadata
// scanned for a VideoObject embed URL. Episodes with no discoverable video
// are routed to review rather than failed, since many shows publish the
// audio feed hours before the video upload.
package resolver
