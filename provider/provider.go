// Package provider contains translation service implementations: an HTTP
// client for a translation backend, an OpenAI-backed translator, an offline
// gettext catalog, and a mock for tests.
package provider

import "github.com/ZaguanLabs/gotlui"

// Service is the batch translation interface.
// This is an alias to the main package interface for convenience.
type Service = gotlui.TranslationService

// BatchRequest is an alias to the main package type.
type BatchRequest = gotlui.BatchRequest

// TextRequest is an alias to the main package type.
type TextRequest = gotlui.TextRequest
