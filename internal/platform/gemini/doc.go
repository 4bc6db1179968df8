// Package gemini implements generation.Generator on Google's Gemini API.
//
// Gemini does not fetch remote images itself, so the generator downloads
// each image and sends it inline alongside the prompt.
package gemini
