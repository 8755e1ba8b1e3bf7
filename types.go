package gotlui

import "time"

// Defaults for the dispatcher and the facade.
const (
	// DefaultBatchSize is the queue length that triggers an immediate flush.
	DefaultBatchSize = 20

	// DefaultDebounce is the quiet period after the first enqueue before a
	// partial batch is flushed.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultRequestTimeout bounds a single call to the translation service.
	DefaultRequestTimeout = 5 * time.Second

	// DefaultWaitTimeout bounds how long TranslateOne waits for a pending
	// fragment. It is longer than DefaultDebounce + DefaultRequestTimeout so a
	// waiter never gives up before the call it is waiting on.
	DefaultWaitTimeout = 6 * time.Second

	// DefaultSourceLang is the language UI strings are authored in.
	DefaultSourceLang = "en"
)

// BatchRequest is the payload of a batch call to the translation service.
type BatchRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"targetLang"`
	SourceLang string   `json:"sourceLang,omitempty"`
}

// BatchResponse is the payload returned by a batch call. Fragments missing
// from Translations are treated as untranslated.
type BatchResponse struct {
	Translations map[string]string `json:"translations"`
}

// TextRequest is the payload of a single-fragment call.
type TextRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
	SourceLang string `json:"sourceLang,omitempty"`
}

// TextResponse is the payload returned by a single-fragment call.
type TextResponse struct {
	Translated string `json:"translated"`
}

// DispatchState is the phase of a Dispatcher.
type DispatchState int

const (
	// StateIdle means the queue is empty and nothing is in flight.
	StateIdle DispatchState = iota
	// StateAccumulating means fragments are queued and the debounce timer runs.
	StateAccumulating
	// StateFlushing means a batch is in flight and the queue is empty.
	StateFlushing
	// StateStopped means the dispatcher no longer accepts fragments.
	StateStopped
)

func (s DispatchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DispatchStats counts dispatcher activity since Start.
type DispatchStats struct {
	Batches   int // Batches sent to the service
	Fragments int // Fragments carried by those batches
	Failures  int // Batches that fell back to original text
	Aborted   int // Batches cancelled by Stop or a language change
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
