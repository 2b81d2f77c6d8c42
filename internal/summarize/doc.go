// Package summarize implements the stage that turns transcript text into a
// short episode summary via the Gemini API.
package summarize
