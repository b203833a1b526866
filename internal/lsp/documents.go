package lsp

import "sync"

// Document is an open config file and its latest analysis.
type Document struct {
	Text    string
	Version int32
	Result  *AnalysisResult
}

// DocumentStore holds open documents keyed by URI. Every write re-analyzes
// the text, so readers always see a result that matches it.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]Document)}
}

// Set stores text for uri and returns its analysis.
func (s *DocumentStore) Set(uri string, version int32, text string) *AnalysisResult {
	result := Analyze(uri, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.docs[uri]; ok && old.Version > version {
		return old.Result
	}
	s.docs[uri] = Document{Text: text, Version: version, Result: result}
	return result
}

func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func (s *DocumentStore) Get(uri string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}
