// Package transcript implements the stage that attaches transcript text to an
// episode. It tries YouTube caption tracks first and records which source won
// so operators can see how a summary was produced. A missing transcript never
// fails the pipeline; the episode degrades to show notes or a placeholder.
package transcript
