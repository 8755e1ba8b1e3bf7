// Package gotlui translates UI text fragments into a target locale while
// keeping calls to the translation backend to a minimum.
//
// Each fragment goes through a skip classifier (emails, URLs, ids, numbers
// and text already written in the target script are never sent), a
// persistent cache, and a batching dispatcher that coalesces concurrent
// requests into a single call per debounce window with single-flight
// semantics per fragment.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/gotlui"
//	    "github.com/ZaguanLabs/gotlui/cache"
//	    "github.com/ZaguanLabs/gotlui/provider"
//	    "github.com/ZaguanLabs/gotlui/storage"
//	)
//
//	func main() {
//	    svc := provider.NewHTTPProvider(provider.HTTPConfig{
//	        BaseURL: "https://api.example.com",
//	    })
//
//	    store := cache.New(storage.NewMemory(5 << 20))
//
//	    t := gotlui.NewTranslator("ar", svc, gotlui.WithCache(store))
//	    defer t.Close()
//
//	    fmt.Println(t.TranslateOne(context.Background(), "Dashboard")) // لوحة التحكم
//	}
package gotlui
